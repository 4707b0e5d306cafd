// Package bridge delivers supervisor events to the UI layer. Delivery is
// fire-and-forget: the supervisor's worker never blocks on a slow subscriber.
package bridge

import "sync"

// Event names — the entire contract with the UI shell.
const (
	BackendReady = "backend-ready"
	BackendError = "backend-error"
)

// Event is a single notification. Message is only set for BackendError.
type Event struct {
	Name    string
	Message string
}

// Bridge fans events out to all current subscribers.
type Bridge struct {
	mu   sync.Mutex
	subs []chan Event
}

// New creates an empty bridge.
func New() *Bridge {
	return &Bridge{}
}

// Subscribe registers a new subscriber and returns its event channel. The
// channel is buffered; events published while the buffer is full are dropped
// for that subscriber.
func (b *Bridge) Subscribe() <-chan Event {
	ch := make(chan Event, 4)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish sends evt to every subscriber without blocking.
func (b *Bridge) Publish(evt Event) {
	b.mu.Lock()
	subs := make([]chan Event, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Ready publishes the readiness notification.
func (b *Bridge) Ready() {
	b.Publish(Event{Name: BackendReady})
}

// Error publishes a failure notification with the user-facing message.
func (b *Bridge) Error(message string) {
	b.Publish(Event{Name: BackendError, Message: message})
}
