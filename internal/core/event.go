package core

import "sync"

// Event is a value delivered by an EventFlow. The key flips on every
// emission, so two emissions of an equal value still compare as different
// occurrences.
type Event[T any] struct {
	Value T
	key   bool
}

// Key reports the occurrence key of the event.
func (e Event[T]) Key() bool {
	return e.key
}

// SameOccurrence reports whether e and o come from the same emission as far
// as change detection can tell. Consecutive emissions never match.
func (e Event[T]) SameOccurrence(o Event[T]) bool {
	return e.key == o.key
}

// EventFlow is a broadcast channel for events holding at most one pending
// event per subscriber. Emit never blocks; a slow subscriber only sees the
// latest event. The most recent event is replayed to new subscribers until
// Reset is called.
type EventFlow[T any] struct {
	mu  sync.Mutex
	key bool
	b   *broadcaster[Event[T]]
}

// NewEventFlow creates an EventFlow with nothing to replay.
func NewEventFlow[T any]() *EventFlow[T] {
	return &EventFlow[T]{b: newBroadcaster[Event[T]](1)}
}

// EventFlowOf returns an EventFlow that has already emitted values, in order.
// Only the last one is replayed.
func EventFlowOf[T any](values ...T) *EventFlow[T] {
	f := NewEventFlow[T]()
	for _, v := range values {
		f.Emit(v)
	}
	return f
}

// Emit publishes v to every subscriber without blocking.
func (f *EventFlow[T]) Emit(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.key = !f.key
	f.b.publish(Event[T]{Value: v, key: f.key})
}

// Subscribe returns a subscription that starts with the latest event, if any.
func (f *EventFlow[T]) Subscribe() *Subscription[Event[T]] {
	return f.b.subscribe()
}

// Latest returns the event that would be replayed to a new subscriber.
func (f *EventFlow[T]) Latest() (Event[T], bool) {
	return f.b.value()
}

// Reset clears the replay buffer so a later subscriber does not see a stale
// event.
func (f *EventFlow[T]) Reset() {
	f.b.reset()
}

// Close closes every subscription; later emissions are dropped.
func (f *EventFlow[T]) Close() {
	f.b.close()
}
