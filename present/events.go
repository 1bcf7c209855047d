package present

import "sync"

// Events travel from the platform agent to the render agent. The platform
// event loop can block for the whole duration of an interactive resize, so
// nothing here may ever block the producer.

type Event interface {
	event()
}

// ResizeEvent reports the latest drawable size. A zero extent means the
// window is minimized.
type ResizeEvent struct {
	Extent Extent
}

// CloseEvent asks the render agent to finish its current iteration and
// shut down. It is never dropped.
type CloseEvent struct{}

// InputEvent carries a platform input notification. The scheduler forwards
// it to an application callback without interpreting it.
type InputEvent struct {
	Key      int32
	Released bool
}

func (ResizeEvent) event() {}
func (CloseEvent) event()  {}
func (InputEvent) event()  {}

// EventChannel is the single-producer/single-consumer mailbox between the
// two agents. Push is O(1) and never blocks: when the channel is full a new
// resize overwrites the most recent pending resize (coalescing to the
// latest size) or, failing that, displaces the oldest non-close entry, so
// the newest size always survives; close events are appended
// unconditionally, and anything else is counted as dropped. DrainAll hands
// the consumer everything in arrival order and empties the channel.
//
// A mutex is fine here: both sides hold it for a handful of pointer moves,
// so the producer latency stays O(1) regardless of render-agent progress.
type EventChannel struct {
	mu       sync.Mutex
	pending  []Event
	capacity int
	dropped  uint64
}

func NewEventChannel(capacity int) *EventChannel {
	if capacity < 1 {
		capacity = 1
	}
	return &EventChannel{
		pending:  make([]Event, 0, capacity),
		capacity: capacity,
	}
}

func (c *EventChannel) Push(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := ev.(CloseEvent); ok {
		c.pending = append(c.pending, ev)
		return
	}
	if len(c.pending) < c.capacity {
		c.pending = append(c.pending, ev)
		return
	}
	if _, ok := ev.(ResizeEvent); ok {
		for i := len(c.pending) - 1; i >= 0; i-- {
			if _, isResize := c.pending[i].(ResizeEvent); isResize {
				c.pending[i] = ev
				return
			}
		}
		// No resize to coalesce with: displace the oldest non-close entry
		// so the newest size is never lost. The displaced event counts as
		// dropped.
		for i := range c.pending {
			if _, isClose := c.pending[i].(CloseEvent); !isClose {
				c.pending[i] = ev
				c.dropped++
				return
			}
		}
	}
	c.dropped++
}

// DrainAll is called once per render iteration by the consumer.
func (c *EventChannel) DrainAll() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = make([]Event, 0, c.capacity)
	return out
}

// Dropped reports how many events were discarded because the channel was
// full. Resizes that were coalesced do not count as dropped.
func (c *EventChannel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
