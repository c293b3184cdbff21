package core

import (
	"context"
	"errors"
	"sync"
)

// ErrFlowClosed is the failure reported by Settled when a flow ends before
// producing an outcome.
var ErrFlowClosed = errors.New("flow closed")

// outputBuffer is how many undelivered outputs a subscriber may lag behind
// before the oldest are dropped.
const outputBuffer = 16

// Cell is the state cell of a stateful Pack. Its value outlives producer
// invocations and is read and written explicitly by the producer.
type Cell[S any] struct {
	mu sync.RWMutex
	v  S
}

// NewCell creates a Cell holding v.
func NewCell[S any](v S) *Cell[S] {
	return &Cell[S]{v: v}
}

// Get returns the current value.
func (c *Cell[S]) Get() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

// Set replaces the value.
func (c *Cell[S]) Set(v S) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = v
}

// Update replaces the value with fn(old) atomically and returns the new value.
func (c *Cell[S]) Update(fn func(S) S) S {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = fn(c.v)
	return c.v
}

// Output is an observable value. Every change is published to subscribers,
// and new subscribers receive the current value first.
type Output[O any] struct {
	mu sync.Mutex
	v  O
	b  *broadcaster[O]
}

// NewOutput creates an Output that already holds initial.
func NewOutput[O any](initial O) *Output[O] {
	o := &Output[O]{v: initial, b: newBroadcaster[O](outputBuffer)}
	o.b.publish(initial)
	return o
}

// Get returns the current value.
func (o *Output[O]) Get() O {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.v
}

// Set replaces the value and publishes it.
func (o *Output[O]) Set(v O) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = v
	o.b.publish(v)
}

// Update replaces the value with fn(old) atomically, publishes it and
// returns it.
func (o *Output[O]) Update(fn func(O) O) O {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.v = fn(o.v)
	o.b.publish(o.v)
	return o.v
}

// Subscribe returns a subscription that starts with the current value.
func (o *Output[O]) Subscribe() *Subscription[O] {
	return o.b.subscribe()
}

func (o *Output[O]) close() {
	o.b.close()
}

// Producer handles one event for a stateful Pack.
type Producer[S, E, O any] func(ctx context.Context, state *Cell[S], event E, out *Output[O])

// StatelessProducer handles one event for a stateless Pack. Anything it needs
// to keep between events lives in its own closure.
type StatelessProducer[E, O any] func(ctx context.Context, event E, out *Output[O])

// Pack binds a producer to an event stream and exposes its output as a
// shared Flow.
type Pack[S, E, O any] struct {
	name    string
	state   *Cell[S]
	initial O
	produce Producer[S, E, O]
}

// NewStatefulPack returns a Pack whose producer shares one state cell across
// every event and every flow.
func NewStatefulPack[S, E, O any](name string, initialState S, initial O, produce Producer[S, E, O]) *Pack[S, E, O] {
	return &Pack[S, E, O]{
		name:    name,
		state:   NewCell(initialState),
		initial: initial,
		produce: produce,
	}
}

// NewStatelessPack creates a Pack whose producer keeps no state between events.
func NewStatelessPack[E, O any](name string, initial O, produce StatelessProducer[E, O]) *Pack[struct{}, E, O] {
	return &Pack[struct{}, E, O]{
		name:    name,
		state:   NewCell(struct{}{}),
		initial: initial,
		produce: func(ctx context.Context, _ *Cell[struct{}], event E, out *Output[O]) {
			produce(ctx, event, out)
		},
	}
}

// Name identifies the pack in logs.
func (p *Pack[S, E, O]) Name() string {
	return p.name
}

// State returns the current value of the state cell.
func (p *Pack[S, E, O]) State() S {
	return p.state.Get()
}

// ProvideFlow returns the producer's output driven by events. Nothing runs
// until the first Subscribe; all subscribers then share one event loop, so
// the producer runs once per delivered event however many subscribers there
// are.
func (p *Pack[S, E, O]) ProvideFlow(ctx context.Context, events *EventFlow[E]) *Flow[O] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Flow[O]{
		out:    NewOutput(p.initial),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	f.run = func() {
		p.loop(ctx, events, f)
	}
	return f
}

// ProvideFlowFor is ProvideFlow over an EventFlow that already carries events.
func (p *Pack[S, E, O]) ProvideFlowFor(ctx context.Context, events ...E) *Flow[O] {
	return p.ProvideFlow(ctx, EventFlowOf(events...))
}

func (p *Pack[S, E, O]) loop(ctx context.Context, events *EventFlow[E], f *Flow[O]) {
	defer close(f.done)

	sub := events.Subscribe()
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			// Earlier invocations are left running: overlapping producers
			// all publish and the last one to finish wins.
			f.inflight.Add(1)
			go func(event E) {
				defer f.inflight.Done()
				p.produce(ctx, p.state, event, f.out)
			}(ev.Value)
		}
	}
}

// Flow is the live output of a Pack for one event stream.
type Flow[O any] struct {
	out    *Output[O]
	run    func()
	cancel context.CancelFunc

	once     sync.Once
	mu       sync.Mutex
	started  bool
	done     chan struct{}
	inflight sync.WaitGroup
}

// Subscribe starts the flow on first use and returns a subscription that
// receives the current output followed by every change.
func (f *Flow[O]) Subscribe() *Subscription[O] {
	f.once.Do(func() {
		f.mu.Lock()
		f.started = true
		f.mu.Unlock()
		go f.run()
	})
	return f.out.Subscribe()
}

// Value returns the current output.
func (f *Flow[O]) Value() O {
	return f.out.Get()
}

// Close stops the event loop, cancels running producers and waits for them,
// then closes every subscription.
func (f *Flow[O]) Close() {
	f.cancel()
	// A flow closed before its first subscriber never starts.
	f.once.Do(func() {})

	f.mu.Lock()
	started := f.started
	f.mu.Unlock()
	if started {
		<-f.done
		f.inflight.Wait()
	}
	f.out.close()
}

// Settled waits on sub for the first Result that is not Loading.
func Settled[T any](ctx context.Context, sub *Subscription[Result[T]]) Result[T] {
	for {
		select {
		case <-ctx.Done():
			return Failure[T](ctx.Err())
		case r, ok := <-sub.C():
			if !ok {
				return Failure[T](ErrFlowClosed)
			}
			if !r.IsLoading() {
				return r
			}
		}
	}
}
