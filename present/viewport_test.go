package present

import (
	"testing"
)

// TestViewportApply confirms Apply derives viewport and scissor from the
// extent with the fixed [0,1] depth range.
func TestViewportApply(t *testing.T) {
	var v ViewportState
	v.Apply(Extent{Width: 1920, Height: 1080})

	vp := v.Viewport()
	if vp.Width != 1920 || vp.Height != 1080 {
		t.Errorf("Expected viewport 1920x1080, got %.0fx%.0f", vp.Width, vp.Height)
	}
	if vp.X != 0 || vp.Y != 0 {
		t.Errorf("Expected viewport origin 0,0, got %.0f,%.0f", vp.X, vp.Y)
	}
	if vp.MinDepth != 0 || vp.MaxDepth != 1 {
		t.Errorf("Expected depth range [0,1], got [%f,%f]", vp.MinDepth, vp.MaxDepth)
	}

	sc := v.Scissor()
	if sc.Extent.Width != 1920 || sc.Extent.Height != 1080 {
		t.Errorf("Expected scissor 1920x1080, got %dx%d", sc.Extent.Width, sc.Extent.Height)
	}

	// A second Apply fully replaces the previous state.
	v.Apply(Extent{Width: 640, Height: 480})
	if v.Viewport().Width != 640 || v.Scissor().Extent.Height != 480 {
		t.Errorf("Expected state replaced by second Apply, got %v %v", v.Viewport(), v.Scissor())
	}
}
