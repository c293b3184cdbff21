package core

import (
	"context"
	"sync"
)

// ViewModel drives a screen: it consumes the screen's events and publishes
// screen state until ctx is cancelled.
type ViewModel[E, S any] func(ctx context.Context, events *EventFlow[E], state *Output[S])

// ScreenProvider owns the event flow and state of one screen. The view model
// starts when the screen is mounted and stops when it is disposed.
type ScreenProvider[E, S any] struct {
	parent    context.Context
	initial   S
	viewModel ViewModel[E, S]
	events    *EventFlow[E]

	mu     sync.Mutex
	out    *Output[S]
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScreenProvider creates an unmounted screen. ctx bounds every mount.
func NewScreenProvider[E, S any](ctx context.Context, initial S, viewModel ViewModel[E, S]) *ScreenProvider[E, S] {
	return &ScreenProvider[E, S]{
		parent:    ctx,
		initial:   initial,
		viewModel: viewModel,
		events:    NewEventFlow[E](),
	}
}

// Events is where the screen pushes user events.
func (p *ScreenProvider[E, S]) Events() *EventFlow[E] {
	return p.events
}

// Mount starts the view model if it is not running. It reports whether this
// call did the mounting.
func (p *ScreenProvider[E, S]) Mount() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mountLocked()
}

// mountLocked is Mount with p.mu held.
func (p *ScreenProvider[E, S]) mountLocked() bool {
	if p.out != nil {
		return false
	}
	ctx, cancel := context.WithCancel(p.parent)
	out := NewOutput(p.initial)
	done := make(chan struct{})
	p.out, p.cancel, p.done = out, cancel, done

	go func() {
		defer close(done)
		p.viewModel(ctx, p.events, out)
	}()
	return true
}

// Mounted reports whether the view model is running.
func (p *ScreenProvider[E, S]) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil
}

// Provide mounts the screen and subscribes to its state.
func (p *ScreenProvider[E, S]) Provide() *Subscription[S] {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mountLocked()
	return p.out.Subscribe()
}

// EmitIfMounted emits e only while the screen is mounted and reports whether
// it did. A concurrent Dispose never leaves e in the reset replay buffer.
func (p *ScreenProvider[E, S]) EmitIfMounted(e E) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		return false
	}
	p.events.Emit(e)
	return true
}

// State returns the current screen state, or the initial state when the
// screen is not mounted.
func (p *ScreenProvider[E, S]) State() S {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()

	if out == nil {
		return p.initial
	}
	return out.Get()
}

// Dispose stops the view model, drops its state and clears the event replay
// buffer so a later mount starts clean.
func (p *ScreenProvider[E, S]) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		return
	}
	p.cancel()
	<-p.done
	p.out.close()
	p.events.Reset()
	p.out, p.cancel, p.done = nil, nil, nil
}
