package present

// Destroying GPU memory the device may still be reading is undefined
// behavior, but waiting for the device stalls the whole pipeline. The
// Reclaimer solves this with a frame-indexed delay queue: an action
// scheduled at frame F runs at frame F+N, where N is the frames-in-flight
// count. By then the slot fences have proven that every submission which
// could reference the resources has completed on the GPU.

type deferredAction struct {
	scheduledAt uint64
	deadline    uint64
	run         func()
}

// Reclaimer is single-threaded like the rest of the render agent; the
// scheduler calls it, nothing else does.
type Reclaimer struct {
	delay   uint64
	pending []deferredAction
}

func NewReclaimer(framesInFlight int) *Reclaimer {
	return &Reclaimer{delay: uint64(framesInFlight)}
}

// Defer enqueues an arbitrary cleanup to run once frame
// currentFrame+framesInFlight is reached. Deadlines are monotonically
// non-decreasing because the delay is constant and frames only move
// forward, so the queue stays sorted by construction.
func (r *Reclaimer) Defer(currentFrame uint64, run func()) {
	r.pending = append(r.pending, deferredAction{
		scheduledAt: currentFrame,
		deadline:    currentFrame + r.delay,
		run:         run,
	})
}

// Schedule retires a generation. The swapchain handle is snapshotted into
// the action so the generation struct may be freely overwritten afterward;
// the generation itself only sees its state flip to Dead once the snapshot
// was destroyed.
func (r *Reclaimer) Schedule(gen *Generation, currentFrame uint64) {
	if gen == nil {
		return
	}
	gen.state = Retiring
	sc := gen.Swapchain
	gen.Swapchain = nil
	r.Defer(currentFrame, func() {
		if sc != nil {
			sc.Destroy()
		}
		gen.state = Dead
	})
}

// Tick executes every action whose deadline has been reached, in
// scheduling order, and leaves the rest untouched. Each action runs
// exactly once.
func (r *Reclaimer) Tick(currentFrame uint64) {
	due := 0
	for due < len(r.pending) && r.pending[due].deadline <= currentFrame {
		r.pending[due].run()
		due++
	}
	if due > 0 {
		rest := copy(r.pending, r.pending[due:])
		r.pending = r.pending[:rest]
	}
}

// DrainAll executes every pending action regardless of deadline. Only
// legal after a full device sync: no GPU work may still reference any
// queued resource.
func (r *Reclaimer) DrainAll() {
	for i := range r.pending {
		r.pending[i].run()
	}
	r.pending = r.pending[:0]
}

// Pending reports the number of not yet executed actions.
func (r *Reclaimer) Pending() int {
	return len(r.pending)
}
