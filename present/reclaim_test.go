package present

import (
	"testing"
)

// TestReclaimerDeadline confirms a deferred action never runs before its
// deadline and runs exactly once when it is reached.
func TestReclaimerDeadline(t *testing.T) {
	r := NewReclaimer(2)
	runs := 0
	r.Defer(5, func() { runs++ })

	r.Tick(5)
	r.Tick(6)
	if runs != 0 {
		t.Fatalf("Action ran %d times before its deadline", runs)
	}
	r.Tick(7)
	if runs != 1 {
		t.Fatalf("Expected exactly one run at the deadline, got %d", runs)
	}
	r.Tick(8)
	r.Tick(100)
	if runs != 1 {
		t.Errorf("Action ran again after completion: %d runs", runs)
	}
	if r.Pending() != 0 {
		t.Errorf("Expected empty queue, got %d pending", r.Pending())
	}
}

// TestReclaimerOrder confirms due actions execute in scheduling order and
// later deadlines stay queued.
func TestReclaimerOrder(t *testing.T) {
	r := NewReclaimer(2)
	var order []int
	r.Defer(0, func() { order = append(order, 1) })
	r.Defer(0, func() { order = append(order, 2) })
	r.Defer(3, func() { order = append(order, 3) })

	r.Tick(2)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("Expected actions 1,2 in order, got %v", order)
	}
	if r.Pending() != 1 {
		t.Errorf("Expected 1 action still pending, got %d", r.Pending())
	}
	r.Tick(5)
	if len(order) != 3 || order[2] != 3 {
		t.Errorf("Expected action 3 last, got %v", order)
	}
}

// TestReclaimerDrainAll confirms draining runs everything regardless of
// deadline and empties the queue.
func TestReclaimerDrainAll(t *testing.T) {
	r := NewReclaimer(3)
	runs := 0
	r.Defer(10, func() { runs++ })
	r.Defer(20, func() { runs++ })

	r.DrainAll()
	if runs != 2 {
		t.Errorf("Expected both actions to run on drain, got %d", runs)
	}
	if r.Pending() != 0 {
		t.Errorf("Expected empty queue after drain, got %d pending", r.Pending())
	}
}

// TestReclaimerSchedule confirms retiring a generation snapshots and
// destroys its swapchain and flips its state to Dead afterward.
func TestReclaimerSchedule(t *testing.T) {
	r := NewReclaimer(2)
	sc := &fakeSwapchain{}
	gen := &Generation{ID: 1, Swapchain: sc, state: Live}

	r.Schedule(gen, 4)
	if gen.State() != Retiring {
		t.Fatalf("Expected generation retiring, got %s", gen.State())
	}
	if gen.Swapchain != nil {
		t.Errorf("Expected swapchain handed off on schedule")
	}
	r.Tick(5)
	if sc.destroyed != 0 {
		t.Fatalf("Swapchain destroyed one frame early")
	}
	r.Tick(6)
	if sc.destroyed != 1 {
		t.Errorf("Expected swapchain destroyed once, got %d", sc.destroyed)
	}
	if gen.State() != Dead {
		t.Errorf("Expected generation dead, got %s", gen.State())
	}
}
