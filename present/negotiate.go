package present

import (
	"fmt"
	"log"
)

// Negotiator turns the driver reported surface support and a requested
// window size into a concrete SurfaceConfig. Preferences are descending:
// the first supported entry wins. An empty preference list falls back to
// the first format the driver reports, respectively to FallbackMode.
type Negotiator struct {
	PreferredFormats []SurfaceFormat
	PreferredModes   []PresentMode

	// FallbackMode must be a mode the driver guarantees to be available
	// (FIFO in Vulkan terms).
	FallbackMode PresentMode
}

// Negotiate fails with ErrSurfaceUnsupported when the surface reports no
// formats or no present modes at all. Every field of the returned config is
// derived from the given support snapshot; nothing is assumed stable across
// resizes.
func (n *Negotiator) Negotiate(sup SurfaceSupport, requested Extent) (SurfaceConfig, error) {
	if len(sup.Formats) == 0 || len(sup.PresentModes) == 0 {
		return SurfaceConfig{}, fmt.Errorf("%w (formats: %d, present modes: %d)",
			ErrSurfaceUnsupported, len(sup.Formats), len(sup.PresentModes))
	}
	cfg := SurfaceConfig{
		Format:      n.selectFormat(sup.Formats),
		PresentMode: n.selectPresentMode(sup.PresentModes),
		Extent:      n.selectExtent(sup.Caps, requested),
		ImageCount:  selectImageCount(sup.Caps),
		Transform:   sup.Caps.CurrentTransform,
	}
	return cfg, nil
}

func (n *Negotiator) selectFormat(available []SurfaceFormat) SurfaceFormat {
	for _, want := range n.PreferredFormats {
		for _, af := range available {
			if af == want {
				return af
			}
		}
	}
	fallback := available[0]
	log.Printf("Did not find prefered SurfaceFormat, selecting first one available. (%v)", fallback)
	return fallback
}

func (n *Negotiator) selectPresentMode(available []PresentMode) PresentMode {
	for _, want := range n.PreferredModes {
		for _, pm := range available {
			if pm == want {
				return pm
			}
		}
	}
	log.Printf("Did not find prefered PresentMode, selecting fallback. (%v)", n.FallbackMode)
	return n.FallbackMode
}

// selectExtent uses the driver reported current extent verbatim unless the
// driver defers to the requester via the MatchWindowExtent sentinel, in
// which case the requested size is clamped into the supported range.
func (n *Negotiator) selectExtent(caps SurfaceCaps, requested Extent) Extent {
	if caps.CurrentExtent.Width != MatchWindowExtent {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func selectImageCount(caps SurfaceCaps) uint32 {
	imgCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imgCount > caps.MaxImageCount {
		imgCount = caps.MaxImageCount
	}
	return imgCount
}
