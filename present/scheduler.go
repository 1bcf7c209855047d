package present

import (
	"fmt"
	"log"
)

// schedulerState is the per-iteration state machine position. Rendering
// and Presenting never survive an iteration; only Acquiring and
// RecreatePending carry over to the next Render call.
type schedulerState uint8

const (
	stateAcquiring schedulerState = iota
	stateRendering
	statePresenting
	stateRecreatePending
)

// Options configures a Scheduler. FramesInFlight is the overlap factor N:
// the number of frames whose GPU work may be in flight at once, the frame
// slot count, and the retirement delay of the Reclaimer.
type Options struct {
	FramesInFlight int
	InitialExtent  Extent
	Negotiator     Negotiator

	// OnInput, when set, receives input events on the render agent.
	OnInput func(InputEvent)
}

// Scheduler drives the acquire/render/present protocol for one surface. It
// owns the single Live generation, the frame counter and the deferred
// reclaim queue. All methods must be called from the render agent only;
// the platform agent talks to it exclusively through the event channel.
type Scheduler struct {
	dev       Device
	events    *EventChannel
	neg       Negotiator
	factory   *Factory
	reclaimer *Reclaimer
	view      ViewportState
	onInput   func(InputEvent)

	framesInFlight int
	live           *Generation
	frame          uint64
	state          schedulerState

	// winExtent is the newest size the platform agent reported; requested
	// is the size the live generation was negotiated for. A mismatch
	// between the two schedules a recreation.
	winExtent Extent
	requested Extent

	negotiateFails int
	recreations    uint64
	closing        bool
	done           bool
}

// NewScheduler negotiates and builds the initial generation. A surface
// that cannot be negotiated at startup is reported as-is; there is nothing
// to retry against yet.
func NewScheduler(dev Device, events *EventChannel, opts Options) (*Scheduler, error) {
	if opts.FramesInFlight < 1 {
		opts.FramesInFlight = 2
	}
	s := &Scheduler{
		dev:            dev,
		events:         events,
		neg:            opts.Negotiator,
		factory:        NewFactory(dev),
		reclaimer:      NewReclaimer(opts.FramesInFlight),
		onInput:        opts.OnInput,
		framesInFlight: opts.FramesInFlight,
		winExtent:      opts.InitialExtent,
		requested:      opts.InitialExtent,
		state:          stateAcquiring,
	}
	sup, err := dev.SurfaceSupport()
	if err != nil {
		return nil, fmt.Errorf("query surface support: %w", err)
	}
	cfg, err := s.neg.Negotiate(sup, s.winExtent)
	if err != nil {
		return nil, err
	}
	gen, err := s.factory.Create(cfg, nil)
	if err != nil {
		return nil, err
	}
	s.live = gen
	log.Printf("Created initial swapchain generation %d (%dx%d, %d images)",
		gen.ID, cfg.Extent.Width, cfg.Extent.Height, cfg.ImageCount)
	return s, nil
}

// Render executes one iteration of the frame state machine. It returns a
// non-nil error only for fatal conditions (ErrDriver, ErrSurfaceLost or a
// failed swapchain build); the caller must then run Shutdown and stop.
// Recoverable surface changes are absorbed internally without ever
// skipping the frame counter.
func (s *Scheduler) Render() error {
	if s.done {
		return nil
	}

	resize := false
	for _, ev := range s.events.DrainAll() {
		switch e := ev.(type) {
		case ResizeEvent:
			s.winExtent = e.Extent
			resize = true
		case CloseEvent:
			s.closing = true
		case InputEvent:
			if s.onInput != nil {
				s.onInput(e)
			}
		}
	}

	if s.state == stateRecreatePending || resize {
		ok, err := s.recreate()
		if err != nil {
			return err
		}
		if !ok {
			// Minimized or transiently unsupported; try again next frame.
			s.endIteration()
			return nil
		}
	}

	// Acquiring. BeginFrame bounds CPU run-ahead via the slot fence.
	slot := s.slot()
	s.dev.BeginFrame(slot)
	image, st := s.live.Swapchain.Acquire(slot)
	switch st {
	case OutOfDate:
		// No frame is rendered this iteration, but the counter advances.
		if _, err := s.recreate(); err != nil {
			return err
		}
		s.endIteration()
		return nil
	case Success, Suboptimal:
		// Suboptimal still delivered an image; render and present it.
	default:
		return fmt.Errorf("%w: acquire returned %v", ErrDriver, st)
	}

	s.state = stateRendering
	s.view.Apply(s.live.Config.Extent)
	if err := s.dev.Submit(slot, s.live.Swapchain, image, &s.view); err != nil {
		return fmt.Errorf("submit frame %d: %w", s.frame, err)
	}

	s.state = statePresenting
	st = s.live.Swapchain.Present(slot, image)
	switch st {
	case Success, Suboptimal, OutOfDate:
		// The frame is already on its way to the display; recreation can
		// only happen on the next iteration.
		if st != Success || s.winExtent != s.requested {
			s.state = stateRecreatePending
		} else {
			s.state = stateAcquiring
		}
	default:
		return fmt.Errorf("%w: present returned %v", ErrDriver, st)
	}

	s.endIteration()
	return nil
}

// recreate builds a new generation for the current window size and hands
// the superseded one to the Reclaimer. It reports ok=false when recreation
// must wait (zero extent, or a first negotiation failure that may be
// transient); two negotiation failures in a row are fatal.
func (s *Scheduler) recreate() (bool, error) {
	if s.winExtent.IsZero() {
		s.state = stateRecreatePending
		return false, nil
	}
	sup, err := s.dev.SurfaceSupport()
	if err != nil {
		return false, fmt.Errorf("query surface support: %w", err)
	}
	cfg, err := s.neg.Negotiate(sup, s.winExtent)
	if err != nil {
		s.negotiateFails++
		if s.negotiateFails > 1 {
			return false, fmt.Errorf("%w: negotiation failed %d times in a row: %v",
				ErrSurfaceLost, s.negotiateFails, err)
		}
		log.Printf("Surface negotiation failed, retrying next frame: %v", err)
		s.state = stateRecreatePending
		return false, nil
	}
	s.negotiateFails = 0

	gen, err := s.factory.Create(cfg, s.live)
	if err != nil {
		return false, err
	}
	s.reclaimer.Schedule(s.live, s.frame)
	s.live = gen
	s.requested = s.winExtent
	s.recreations++
	s.state = stateAcquiring
	log.Printf("Recreated swapchain: generation %d (%dx%d), %d retiring",
		gen.ID, cfg.Extent.Width, cfg.Extent.Height, s.reclaimer.Pending())
	return true, nil
}

// endIteration advances the frame counter by exactly one and ticks the
// reclaim queue with the post-increment value, releasing every generation
// whose retirement delay has elapsed.
func (s *Scheduler) endIteration() {
	s.frame++
	s.reclaimer.Tick(s.frame)
	if s.closing {
		s.done = true
	}
}

// Shutdown forces the single full device synchronization of the system's
// lifetime, then drains every pending reclaim action and tears down the
// live generation through the same queue. Safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.dev.WaitIdle()
	if s.live != nil {
		s.reclaimer.Schedule(s.live, s.frame)
		s.live = nil
	}
	s.reclaimer.DrainAll()
	s.done = true
}

func (s *Scheduler) slot() int {
	return int(s.frame % uint64(s.framesInFlight))
}

// Done reports whether the scheduler processed a close event (or was shut
// down) and the render loop should stop.
func (s *Scheduler) Done() bool {
	return s.done
}

// Frame returns the number of completed render-loop iterations.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Live returns the current live generation. Shutdown leaves it nil.
func (s *Scheduler) Live() *Generation {
	return s.live
}

// Recreations returns how many swapchain recreations have happened.
func (s *Scheduler) Recreations() uint64 {
	return s.recreations
}
