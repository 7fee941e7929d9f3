package pdf

import (
	"context"
	"fmt"
	"sync"
)

// BootState is the lifecycle of a one-time engine initialization.
type BootState int

const (
	StateUninitialized BootState = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s BootState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// attempt is one run of the init function; waiters share it.
type attempt struct {
	done chan struct{}
	err  error
}

// Bootstrapper runs an initialization function at most once successfully.
// Callers arriving while it runs wait on the same attempt. After a failure
// the next caller starts a fresh attempt.
type Bootstrapper struct {
	init func(context.Context) error

	mu      sync.Mutex
	state   BootState
	current *attempt
}

// NewBootstrapper creates a bootstrapper around init.
func NewBootstrapper(init func(context.Context) error) *Bootstrapper {
	return &Bootstrapper{init: init}
}

// Ensure blocks until initialization has succeeded or the shared attempt
// fails. ctx only bounds this caller's wait; the attempt itself keeps
// running for the other waiters.
func (b *Bootstrapper) Ensure(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateReady:
		b.mu.Unlock()
		return nil
	case StateInitializing:
	default:
		b.state = StateInitializing
		b.current = &attempt{done: make(chan struct{})}
		go b.run(context.WithoutCancel(ctx), b.current)
	}
	a := b.current
	b.mu.Unlock()

	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bootstrapper) run(ctx context.Context, a *attempt) {
	err := b.safeInit(ctx)

	b.mu.Lock()
	a.err = err
	if err != nil {
		b.state = StateFailed
	} else {
		b.state = StateReady
	}
	b.mu.Unlock()

	close(a.done)
}

func (b *Bootstrapper) safeInit(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine bootstrap panicked: %v", r)
		}
	}()
	return b.init(ctx)
}

// State returns the current lifecycle state.
func (b *Bootstrapper) State() BootState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Ready reports whether initialization has completed successfully.
func (b *Bootstrapper) Ready() bool {
	return b.State() == StateReady
}

// EngineBootstrap is the process-wide MuPDF readiness gate.
var EngineBootstrap = NewBootstrapper(probeEngine)

// probeEngine confirms MuPDF can open and count a document.
func probeEngine(ctx context.Context) error {
	doc, err := NewFitzEngine().Open(ctx, BuildSample([][]string{{"probe"}}))
	if err != nil {
		return fmt.Errorf("open probe document: %w", err)
	}
	defer doc.Close()

	if n := doc.PageCount(); n != 1 {
		return fmt.Errorf("probe document reports %d pages, want 1", n)
	}
	return nil
}
