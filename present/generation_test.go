package present

import (
	"testing"
)

// TestFactoryCreate confirms ids are monotonic, the predecessor swapchain
// is passed as reuse hint and the predecessor flips to Retiring.
func TestFactoryCreate(t *testing.T) {
	dev := newFakeDevice()
	f := NewFactory(dev)
	cfg := SurfaceConfig{Extent: Extent{Width: 800, Height: 600}}

	gen1, err := f.Create(cfg, nil)
	if err != nil {
		t.Fatalf("Create failed: %s", err)
	}
	gen2, err := f.Create(cfg, gen1)
	if err != nil {
		t.Fatalf("Create with predecessor failed: %s", err)
	}

	if gen1.ID != 1 || gen2.ID != 2 {
		t.Errorf("Expected ids 1,2, got %d,%d", gen1.ID, gen2.ID)
	}
	if gen1.State() != Retiring {
		t.Errorf("Expected predecessor retiring, got %s", gen1.State())
	}
	if gen2.State() != Live {
		t.Errorf("Expected successor live, got %s", gen2.State())
	}
	if dev.oldHints[1] != dev.created[0] {
		t.Errorf("Expected predecessor swapchain as reuse hint")
	}
}

// TestFactoryRejectsRetired confirms a generation can only be superseded
// once.
func TestFactoryRejectsRetired(t *testing.T) {
	dev := newFakeDevice()
	f := NewFactory(dev)
	cfg := SurfaceConfig{Extent: Extent{Width: 800, Height: 600}}

	gen1, _ := f.Create(cfg, nil)
	if _, err := f.Create(cfg, gen1); err != nil {
		t.Fatalf("First supersession failed: %s", err)
	}
	if _, err := f.Create(cfg, gen1); err == nil {
		t.Errorf("Expected error when superseding a retired generation")
	}
}
