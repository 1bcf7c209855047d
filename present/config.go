package present

import (
	"golang.org/x/exp/constraints"
)

// Enum values in this package mirror the numeric values of the underlying
// graphics API so the driver layer can convert without lookup tables.
type (
	PixelFormat int32
	ColorSpace  int32
	PresentMode int32
	Transform   uint32
)

// MatchWindowExtent is the sentinel a driver reports as its current extent
// when the surface size is determined by the requesting window instead.
const MatchWindowExtent = ^uint32(0)

type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether the extent has no visible area, which is how a
// minimized window announces itself.
func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

type SurfaceFormat struct {
	Format     PixelFormat
	ColorSpace ColorSpace
}

// SurfaceCaps are the driver reported capabilities of a surface at one
// point in time. They are re-read in full before every negotiation.
type SurfaceCaps struct {
	MinImageCount    uint32
	MaxImageCount    uint32 // 0 means no upper bound
	CurrentExtent    Extent
	MinImageExtent   Extent
	MaxImageExtent   Extent
	CurrentTransform Transform
}

// SurfaceSupport bundles everything a negotiation needs to know about a
// surface: its capabilities plus the supported formats and present modes.
type SurfaceSupport struct {
	Caps         SurfaceCaps
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// SurfaceConfig is the concrete configuration one swapchain generation is
// built from. It is computed once per generation and never mutated; a
// recreation negotiates a completely fresh config.
type SurfaceConfig struct {
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent
	ImageCount  uint32
	Transform   Transform
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
