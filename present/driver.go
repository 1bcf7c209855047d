package present

import "errors"

// ErrSurfaceUnsupported means the surface reported zero usable formats or
// present modes. A single occurrence right after a resize can be transient;
// repeated occurrences mean the surface is gone.
var ErrSurfaceUnsupported = errors.New("present: surface reports no usable formats or present modes")

// ErrSurfaceLost means negotiation kept failing after a recreation, so the
// surface is treated as permanently unusable.
var ErrSurfaceLost = errors.New("present: surface lost")

// ErrDriver means an acquire, submit or present primitive returned a status
// outside the recoverable set. There is no recovery; the caller must run an
// orderly shutdown.
var ErrDriver = errors.New("present: device error")

// Status is the result of the acquire and present primitives. Success and
// Suboptimal both carry a usable image; OutOfDate mandates recreation;
// anything else is mapped to DeviceError by the driver layer.
type Status int

const (
	Success Status = iota
	Suboptimal
	OutOfDate
	DeviceError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Suboptimal:
		return "suboptimal"
	case OutOfDate:
		return "out-of-date"
	default:
		return "device-error"
	}
}

// Swapchain is the driver side of one generation: the presentation images
// and whatever per-image resources the driver derived from them. Acquire
// and Present take the frame-slot index so the driver can pick the matching
// synchronization objects. Destroy releases everything; the scheduler only
// ever calls it through the Reclaimer.
type Swapchain interface {
	Acquire(slot int) (image int, st Status)
	Present(slot int, image int) Status
	Destroy()
}

// Device is the narrow driver contract the frame scheduler runs against.
//
// BeginFrame blocks until the GPU work submitted from the same slot N
// frames ago has completed; it is the only per-frame wait and bounds CPU
// run-ahead to the frames-in-flight count. Submit records and submits the
// commands for one acquired image, taking the viewport state to record
// dynamic viewport/scissor. WaitIdle is a full device sync and is only
// legal during shutdown.
type Device interface {
	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(cfg SurfaceConfig, old Swapchain) (Swapchain, error)
	BeginFrame(slot int)
	Submit(slot int, sc Swapchain, image int, view *ViewportState) error
	WaitIdle()
}
