package present

import (
	"errors"
	"fmt"
)

// GenerationState tracks a generation through its lifecycle. Exactly one
// generation is Live at any instant; a generation turns Retiring the moment
// its successor goes Live and Dead once the Reclaimer released it.
type GenerationState uint8

const (
	Live GenerationState = iota
	Retiring
	Dead
)

func (s GenerationState) String() string {
	switch s {
	case Live:
		return "live"
	case Retiring:
		return "retiring"
	default:
		return "dead"
	}
}

// Generation is one complete, internally consistent presentation surface:
// the driver swapchain plus the config it was built from. The scheduler
// owns it exclusively while Live; ownership moves to the Reclaimer when it
// is superseded.
type Generation struct {
	ID        uint64
	Config    SurfaceConfig
	Swapchain Swapchain

	state GenerationState
}

func (g *Generation) State() GenerationState {
	return g.state
}

// Factory builds swapchain generations with monotonically increasing ids.
// It never destroys a predecessor; it only hands its swapchain to the
// driver as a reuse hint and flips it to Retiring. Routing the predecessor
// through the Reclaimer exactly once is the caller's job.
type Factory struct {
	dev    Device
	nextID uint64
}

func NewFactory(dev Device) *Factory {
	return &Factory{dev: dev, nextID: 1}
}

// Create builds a new Live generation. A predecessor that is no longer
// Live has already been handed over once and must not be reused.
func (f *Factory) Create(cfg SurfaceConfig, predecessor *Generation) (*Generation, error) {
	var old Swapchain
	if predecessor != nil {
		if predecessor.state != Live {
			return nil, errors.New("present: predecessor generation already retired")
		}
		old = predecessor.Swapchain
	}
	sc, err := f.dev.CreateSwapchain(cfg, old)
	if err != nil {
		return nil, fmt.Errorf("create swapchain generation %d: %w", f.nextID, err)
	}
	if predecessor != nil {
		predecessor.state = Retiring
	}
	gen := &Generation{
		ID:        f.nextID,
		Config:    cfg,
		Swapchain: sc,
		state:     Live,
	}
	f.nextID++
	return gen, nil
}
