package kernel

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/shared/types"
)

// Event is one observable kernel transition, published to event-stream
// observers
type Event struct {
	Type   string    `json:"type"`
	PID    types.PID `json:"pid,omitempty"`
	Line   uint32    `json:"line,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Event types
const (
	EventCreated    = "process_created"
	EventTerminated = "process_terminated"
	EventScheduled  = "scheduled"
	EventBlocked    = "blocked"
	EventSent       = "message_sent"
	EventDelivered  = "message_delivered"
	EventInterrupt  = "interrupt"
	EventDropped    = "interrupt_dropped"
)

// Feed fans kernel events out to observers. Publishing never blocks: a slow
// observer loses events rather than stalling the kernel.
type Feed struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewFeed creates an event feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan Event)}
}

// Subscribe registers an observer. The returned cancel function must be
// called when the observer disconnects.
func (f *Feed) Subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan Event, 256)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every observer, dropping on full buffers
func (f *Feed) Publish(e Event) {
	e.Time = time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Observers reports the number of subscribed observers
func (f *Feed) Observers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
