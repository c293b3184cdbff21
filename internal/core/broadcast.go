package core

import "sync"

// broadcaster fans values out to subscribers. Each subscriber owns a buffered
// channel; when it is full the oldest pending value is dropped, so publish
// never blocks and the newest value is always delivered. The latest value is
// replayed to new subscribers.
type broadcaster[T any] struct {
	mu     sync.Mutex
	size   int
	latest T
	has    bool
	closed bool
	subs   map[chan T]struct{}
}

func newBroadcaster[T any](size int) *broadcaster[T] {
	if size < 1 {
		size = 1
	}
	return &broadcaster[T]{
		size: size,
		subs: make(map[chan T]struct{}),
	}
}

func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.latest, b.has = v, true
	for ch := range b.subs {
		offer(ch, v)
	}
}

// offer must be called with b.mu held: receivers only ever take from ch, so
// after one value is dropped the send succeeds.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (b *broadcaster[T]) subscribe() *Subscription[T] {
	ch := make(chan T, b.size)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return &Subscription[T]{ch: ch}
	}
	if b.has {
		ch <- b.latest
	}
	b.subs[ch] = struct{}{}
	return &Subscription[T]{ch: ch, b: b}
}

func (b *broadcaster[T]) unsubscribe(ch chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *broadcaster[T]) value() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.has
}

// reset forgets the replay value without touching pending deliveries.
func (b *broadcaster[T]) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var zero T
	b.latest, b.has = zero, false
}

func (b *broadcaster[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscription is one consumer's view of an EventFlow, Flow or Output.
type Subscription[T any] struct {
	ch   chan T
	b    *broadcaster[T]
	once sync.Once
}

// C returns the delivery channel. It is closed on Unsubscribe or when the
// source is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		if s.b != nil {
			s.b.unsubscribe(s.ch)
		}
	})
}
