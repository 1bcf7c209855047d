package present

import (
	"errors"
	"testing"
)

func testSupport() SurfaceSupport {
	return SurfaceSupport{
		Caps: SurfaceCaps{
			MinImageCount:    2,
			MaxImageCount:    8,
			CurrentExtent:    Extent{Width: MatchWindowExtent, Height: MatchWindowExtent},
			MinImageExtent:   Extent{Width: 1, Height: 1},
			MaxImageExtent:   Extent{Width: 16384, Height: 16384},
			CurrentTransform: 1,
		},
		Formats: []SurfaceFormat{
			{Format: 44, ColorSpace: 0},
			{Format: 50, ColorSpace: 0},
		},
		PresentModes: []PresentMode{2, 1, 0},
	}
}

// TestNegotiatePreferences confirms the first supported preference wins
// for both format and present mode.
func TestNegotiatePreferences(t *testing.T) {
	n := Negotiator{
		PreferredFormats: []SurfaceFormat{
			{Format: 99, ColorSpace: 0}, // unsupported
			{Format: 50, ColorSpace: 0},
		},
		PreferredModes: []PresentMode{7, 1},
		FallbackMode:   2,
	}
	cfg, err := n.Negotiate(testSupport(), Extent{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("Negotiate failed: %s", err)
	}
	if cfg.Format.Format != 50 {
		t.Errorf("Expected format 50, got %d", cfg.Format.Format)
	}
	if cfg.PresentMode != 1 {
		t.Errorf("Expected present mode 1, got %d", cfg.PresentMode)
	}
	if cfg.Transform != 1 {
		t.Errorf("Expected current transform to be carried over, got %d", cfg.Transform)
	}
}

// TestNegotiateFallbacks confirms the first available format and the
// fallback mode are used when no preference matches.
func TestNegotiateFallbacks(t *testing.T) {
	n := Negotiator{
		PreferredFormats: []SurfaceFormat{{Format: 99, ColorSpace: 9}},
		PreferredModes:   []PresentMode{9},
		FallbackMode:     2,
	}
	cfg, err := n.Negotiate(testSupport(), Extent{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("Negotiate failed: %s", err)
	}
	if cfg.Format.Format != 44 {
		t.Errorf("Expected first available format 44, got %d", cfg.Format.Format)
	}
	if cfg.PresentMode != 2 {
		t.Errorf("Expected fallback mode 2, got %d", cfg.PresentMode)
	}
}

// TestNegotiateExtent confirms the driver extent wins when fixed and the
// requested extent is clamped when the driver defers via the sentinel.
func TestNegotiateExtent(t *testing.T) {
	n := Negotiator{FallbackMode: 2}

	sup := testSupport()
	cfg, _ := n.Negotiate(sup, Extent{Width: 800, Height: 600})
	if cfg.Extent.Width != 800 || cfg.Extent.Height != 600 {
		t.Errorf("Expected requested extent 800x600, got %dx%d", cfg.Extent.Width, cfg.Extent.Height)
	}

	cfg, _ = n.Negotiate(sup, Extent{Width: 100000, Height: 0})
	if cfg.Extent.Width != 16384 || cfg.Extent.Height != 1 {
		t.Errorf("Expected clamped extent 16384x1, got %dx%d", cfg.Extent.Width, cfg.Extent.Height)
	}

	sup.Caps.CurrentExtent = Extent{Width: 640, Height: 480}
	cfg, _ = n.Negotiate(sup, Extent{Width: 800, Height: 600})
	if cfg.Extent.Width != 640 || cfg.Extent.Height != 480 {
		t.Errorf("Expected driver extent 640x480, got %dx%d", cfg.Extent.Width, cfg.Extent.Height)
	}
}

// TestNegotiateImageCount confirms min+1 images are requested, capped at
// the driver maximum when one exists.
func TestNegotiateImageCount(t *testing.T) {
	n := Negotiator{FallbackMode: 2}

	sup := testSupport()
	cfg, _ := n.Negotiate(sup, Extent{Width: 800, Height: 600})
	if cfg.ImageCount != 3 {
		t.Errorf("Expected image count 3, got %d", cfg.ImageCount)
	}

	sup.Caps.MinImageCount = 4
	sup.Caps.MaxImageCount = 4
	cfg, _ = n.Negotiate(sup, Extent{Width: 800, Height: 600})
	if cfg.ImageCount != 4 {
		t.Errorf("Expected image count capped at 4, got %d", cfg.ImageCount)
	}

	sup.Caps.MaxImageCount = 0
	cfg, _ = n.Negotiate(sup, Extent{Width: 800, Height: 600})
	if cfg.ImageCount != 5 {
		t.Errorf("Expected uncapped image count 5, got %d", cfg.ImageCount)
	}
}

// TestNegotiateUnsupported confirms a surface without formats or modes is
// rejected with ErrSurfaceUnsupported.
func TestNegotiateUnsupported(t *testing.T) {
	n := Negotiator{FallbackMode: 2}

	sup := testSupport()
	sup.Formats = nil
	if _, err := n.Negotiate(sup, Extent{Width: 800, Height: 600}); !errors.Is(err, ErrSurfaceUnsupported) {
		t.Errorf("Expected ErrSurfaceUnsupported for empty formats, got %v", err)
	}

	sup = testSupport()
	sup.PresentModes = nil
	if _, err := n.Negotiate(sup, Extent{Width: 800, Height: 600}); !errors.Is(err, ErrSurfaceUnsupported) {
		t.Errorf("Expected ErrSurfaceUnsupported for empty present modes, got %v", err)
	}
}
