package present

import (
	"errors"
	"testing"
)

// fakeSwapchain scripts acquire/present statuses per call; unscripted
// calls return Success.
type fakeSwapchain struct {
	cfg       SurfaceConfig
	acquire   []Status
	present   []Status
	acquired  int
	presented int
	destroyed int
}

func (f *fakeSwapchain) Acquire(slot int) (int, Status) {
	st := Success
	if f.acquired < len(f.acquire) {
		st = f.acquire[f.acquired]
	}
	f.acquired++
	if st == Success || st == Suboptimal {
		return 0, st
	}
	return -1, st
}

func (f *fakeSwapchain) Present(slot int, image int) Status {
	st := Success
	if f.presented < len(f.present) {
		st = f.present[f.presented]
	}
	f.presented++
	return st
}

func (f *fakeSwapchain) Destroy() {
	f.destroyed++
}

type fakeDevice struct {
	support    SurfaceSupport
	supportErr error
	createErr  error

	created    []*fakeSwapchain
	oldHints   []Swapchain
	beginSlots []int
	submits    int
	waitIdles  int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{support: testSupport()}
}

func (d *fakeDevice) SurfaceSupport() (SurfaceSupport, error) {
	return d.support, d.supportErr
}

func (d *fakeDevice) CreateSwapchain(cfg SurfaceConfig, old Swapchain) (Swapchain, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	sc := &fakeSwapchain{cfg: cfg}
	d.created = append(d.created, sc)
	d.oldHints = append(d.oldHints, old)
	return sc, nil
}

func (d *fakeDevice) BeginFrame(slot int) {
	d.beginSlots = append(d.beginSlots, slot)
}

func (d *fakeDevice) Submit(slot int, sc Swapchain, image int, view *ViewportState) error {
	d.submits++
	return nil
}

func (d *fakeDevice) WaitIdle() {
	d.waitIdles++
}

func newTestScheduler(t *testing.T, dev *fakeDevice, framesInFlight int) (*Scheduler, *EventChannel) {
	t.Helper()
	events := NewEventChannel(8)
	s, err := NewScheduler(dev, events, Options{
		FramesInFlight: framesInFlight,
		InitialExtent:  Extent{Width: 800, Height: 600},
		Negotiator:     Negotiator{FallbackMode: 2},
	})
	if err != nil {
		t.Fatalf("NewScheduler failed: %s", err)
	}
	return s, events
}

// TestSchedulerInitialGeneration confirms startup builds exactly one live
// generation at the requested size.
func TestSchedulerInitialGeneration(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 2)

	if len(dev.created) != 1 {
		t.Fatalf("Expected 1 swapchain at startup, got %d", len(dev.created))
	}
	if dev.oldHints[0] != nil {
		t.Errorf("Expected no old-swapchain hint at startup")
	}
	live := s.Live()
	if live == nil || live.ID != 1 || live.State() != Live {
		t.Fatalf("Expected live generation 1, got %+v", live)
	}
	if live.Config.Extent.Width != 800 || live.Config.Extent.Height != 600 {
		t.Errorf("Expected 800x600, got %dx%d", live.Config.Extent.Width, live.Config.Extent.Height)
	}
}

// TestSchedulerResizeRetirement walks the canonical resize with 2 frames
// in flight: a generation retired at frame F is destroyed when the frame
// counter reaches F+2, after exactly two more completed presents, and
// rendering never pauses. A second resize on the very next frame checks
// that overlapping retirements release in order.
func TestSchedulerResizeRetirement(t *testing.T) {
	dev := newFakeDevice()
	s, events := newTestScheduler(t, dev, 2)

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}

	// Retires generation 1 at frame 1; its delay elapses at frame 3.
	events.Push(ResizeEvent{Extent{Width: 1920, Height: 1080}})
	if err := s.Render(); err != nil {
		t.Fatalf("Render after resize failed: %s", err)
	}
	if len(dev.created) != 2 {
		t.Fatalf("Expected recreation, got %d swapchains", len(dev.created))
	}
	if dev.oldHints[1] != dev.created[0] {
		t.Errorf("Expected superseded swapchain as reuse hint")
	}
	if s.Live().ID != 2 || s.Live().Config.Extent.Width != 1920 {
		t.Errorf("Expected live generation 2 at 1920 wide, got %d at %d",
			s.Live().ID, s.Live().Config.Extent.Width)
	}
	first := dev.created[0]
	if first.destroyed != 0 {
		t.Fatalf("First swapchain destroyed before its retirement delay")
	}

	// Retires generation 2 at frame 2; its delay elapses at frame 4.
	events.Push(ResizeEvent{Extent{Width: 800, Height: 600}})
	if err := s.Render(); err != nil {
		t.Fatalf("Render after second resize failed: %s", err)
	}
	if len(dev.created) != 3 || s.Live().ID != 3 {
		t.Fatalf("Expected a third generation, got %d swapchains, live %d",
			len(dev.created), s.Live().ID)
	}
	second := dev.created[1]
	if first.destroyed != 1 {
		t.Errorf("Expected first swapchain destroyed at frame 3, got %d", first.destroyed)
	}
	if second.destroyed != 0 {
		t.Fatalf("Second swapchain destroyed before its retirement delay")
	}

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if second.destroyed != 1 {
		t.Errorf("Expected second swapchain destroyed at frame 4, got %d", second.destroyed)
	}
	if dev.submits != 4 {
		t.Errorf("Expected a submit every iteration across both resizes, got %d", dev.submits)
	}
}

// TestSchedulerAcquireOutOfDate confirms an out-of-date acquire triggers
// an immediate recreation, skips the frame's submit and still advances the
// frame counter.
func TestSchedulerAcquireOutOfDate(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 2)
	dev.created[0].acquire = []Status{OutOfDate}

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if dev.submits != 0 {
		t.Errorf("Expected no submit for an out-of-date acquire, got %d", dev.submits)
	}
	if s.Frame() != 1 {
		t.Errorf("Expected frame counter to advance, got %d", s.Frame())
	}
	if len(dev.created) != 2 || s.Live().ID != 2 {
		t.Errorf("Expected immediate recreation, got %d swapchains, live %d",
			len(dev.created), s.Live().ID)
	}

	if err := s.Render(); err != nil {
		t.Fatalf("Render after recreation failed: %s", err)
	}
	if dev.submits != 1 {
		t.Errorf("Expected rendering to resume, got %d submits", dev.submits)
	}
}

// TestSchedulerSuboptimalAcquire confirms a suboptimal acquire still
// renders and presents without forcing a recreation.
func TestSchedulerSuboptimalAcquire(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 2)
	dev.created[0].acquire = []Status{Suboptimal}

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if dev.submits != 1 || dev.created[0].presented != 1 {
		t.Errorf("Expected suboptimal image to be rendered and presented")
	}
	if s.Recreations() != 0 {
		t.Errorf("Expected no recreation for suboptimal acquire alone, got %d", s.Recreations())
	}
}

// TestSchedulerSuboptimalPresent confirms a suboptimal present completes
// the frame and defers recreation to the next iteration.
func TestSchedulerSuboptimalPresent(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 2)
	dev.created[0].present = []Status{Suboptimal}

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if dev.created[0].presented != 1 {
		t.Errorf("Expected the suboptimal frame to still be presented")
	}
	if s.Recreations() != 0 {
		t.Fatalf("Recreation must not happen within the presenting iteration")
	}

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if s.Recreations() != 1 || s.Live().ID != 2 {
		t.Errorf("Expected deferred recreation on the next iteration, got %d recreations, live %d",
			s.Recreations(), s.Live().ID)
	}
}

// TestSchedulerAcquireDeviceError confirms a device error during acquire
// is fatal and reported as ErrDriver.
func TestSchedulerAcquireDeviceError(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 2)
	dev.created[0].acquire = []Status{DeviceError}

	err := s.Render()
	if !errors.Is(err, ErrDriver) {
		t.Errorf("Expected ErrDriver, got %v", err)
	}
}

// TestSchedulerSurfaceLost confirms one failed negotiation is retried and
// a second consecutive failure is reported as ErrSurfaceLost.
func TestSchedulerSurfaceLost(t *testing.T) {
	dev := newFakeDevice()
	s, events := newTestScheduler(t, dev, 2)

	dev.support.Formats = nil
	events.Push(ResizeEvent{Extent{Width: 1024, Height: 768}})
	if err := s.Render(); err != nil {
		t.Fatalf("Expected first negotiation failure to be soft, got %s", err)
	}
	if s.Frame() != 1 {
		t.Errorf("Expected frame counter to advance through the retry, got %d", s.Frame())
	}

	err := s.Render()
	if !errors.Is(err, ErrSurfaceLost) {
		t.Errorf("Expected ErrSurfaceLost on repeated failure, got %v", err)
	}
}

// TestSchedulerSurfaceRecovers confirms a transient negotiation failure
// followed by a good snapshot resumes with a fresh generation.
func TestSchedulerSurfaceRecovers(t *testing.T) {
	dev := newFakeDevice()
	s, events := newTestScheduler(t, dev, 2)

	dev.support.Formats = nil
	events.Push(ResizeEvent{Extent{Width: 1024, Height: 768}})
	if err := s.Render(); err != nil {
		t.Fatalf("Expected soft failure, got %s", err)
	}

	dev.support = testSupport()
	if err := s.Render(); err != nil {
		t.Fatalf("Expected recovery, got %s", err)
	}
	if s.Live().ID != 2 || s.Live().Config.Extent.Width != 1024 {
		t.Errorf("Expected recovered generation 2 at 1024 wide, got %d at %d",
			s.Live().ID, s.Live().Config.Extent.Width)
	}
}

// TestSchedulerMinimized confirms a zero-extent resize parks recreation
// without blocking the loop, and a restore resumes rendering.
func TestSchedulerMinimized(t *testing.T) {
	dev := newFakeDevice()
	s, events := newTestScheduler(t, dev, 2)

	events.Push(ResizeEvent{})
	if err := s.Render(); err != nil {
		t.Fatalf("Render while minimized failed: %s", err)
	}
	if dev.submits != 0 {
		t.Errorf("Expected no rendering while minimized, got %d submits", dev.submits)
	}
	if s.Frame() != 1 {
		t.Errorf("Expected frame counter to advance while minimized, got %d", s.Frame())
	}
	if err := s.Render(); err != nil {
		t.Fatalf("Render while minimized failed: %s", err)
	}
	if len(dev.created) != 1 {
		t.Errorf("Expected no recreation at zero extent, got %d swapchains", len(dev.created))
	}

	events.Push(ResizeEvent{Extent{Width: 800, Height: 600}})
	if err := s.Render(); err != nil {
		t.Fatalf("Render after restore failed: %s", err)
	}
	if len(dev.created) != 2 || dev.submits != 1 {
		t.Errorf("Expected recreation and rendering after restore, got %d swapchains, %d submits",
			len(dev.created), dev.submits)
	}
}

// TestSchedulerShutdown confirms close leads to an orderly teardown: one
// device sync, every swapchain destroyed exactly once, nothing live.
func TestSchedulerShutdown(t *testing.T) {
	dev := newFakeDevice()
	s, events := newTestScheduler(t, dev, 2)

	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	events.Push(ResizeEvent{Extent{Width: 1600, Height: 900}})
	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	events.Push(CloseEvent{})
	if err := s.Render(); err != nil {
		t.Fatalf("Render failed: %s", err)
	}
	if !s.Done() {
		t.Fatalf("Expected scheduler done after close event")
	}

	s.Shutdown()
	if dev.waitIdles != 1 {
		t.Errorf("Expected exactly one device sync, got %d", dev.waitIdles)
	}
	if s.Live() != nil {
		t.Errorf("Expected no live generation after shutdown")
	}
	for i, sc := range dev.created {
		if sc.destroyed != 1 {
			t.Errorf("Swapchain %d destroyed %d times, expected once", i, sc.destroyed)
		}
	}
}

// TestSchedulerSlotCycle confirms frame slots cycle modulo the overlap
// factor.
func TestSchedulerSlotCycle(t *testing.T) {
	dev := newFakeDevice()
	s, _ := newTestScheduler(t, dev, 3)

	for i := 0; i < 6; i++ {
		if err := s.Render(); err != nil {
			t.Fatalf("Render %d failed: %s", i, err)
		}
	}
	want := []int{0, 1, 2, 0, 1, 2}
	if len(dev.beginSlots) != len(want) {
		t.Fatalf("Expected %d frame waits, got %d", len(want), len(dev.beginSlots))
	}
	for i, slot := range dev.beginSlots {
		if slot != want[i] {
			t.Errorf("Iteration %d used slot %d, expected %d", i, slot, want[i])
		}
	}
}
