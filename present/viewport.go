package present

// Viewport matches the draw-time viewport parameters the driver records
// each frame. Depth range is fixed to [0,1].
type Viewport struct {
	X        float32
	Y        float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type Rect struct {
	X      int32
	Y      int32
	Extent Extent
}

// ViewportState holds the dynamic viewport/scissor derived from the live
// generation's extent. Apply must run once per frame before any draw is
// recorded; pipelines carry dynamic viewport/scissor state and are never
// rebuilt when the extent changes.
type ViewportState struct {
	viewport Viewport
	scissor  Rect
}

func (v *ViewportState) Apply(extent Extent) {
	v.viewport = Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	v.scissor = Rect{X: 0, Y: 0, Extent: extent}
}

func (v *ViewportState) Viewport() Viewport {
	return v.viewport
}

func (v *ViewportState) Scissor() Rect {
	return v.scissor
}
