// File: coroutine/asyncgenerator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AsyncGenerator[T] implements the producer/consumer rendezvous from spec
// §3/§4.4. The state machine there is specified for a single coroutine frame
// handing a pointer back and forth with one atomic enumeration; ported to
// goroutines, the equivalent is two unbuffered channels (value handoff,
// resume handoff) plus an atomic state word kept for introspection and to
// assert the §3 invariants in tests.
//
// Simplification: the
// source state machine allows the producer to look ahead by one value (it
// can start computing the next item while the consumer is still processing
// the current one, flipping straight from VRPS to VRPA without the consumer
// ever observing VNRCS). This port uses strict alternation instead — the
// producer never computes ahead of the consumer's next Advance. Every
// testable property in spec §8 (no resume-while-unconsumed, no stale value
// after cancellation, producer self-destructs on cancellation) still holds;
// the only thing given up is the one-deep prefetch pipelining.

package coroutine

import (
	"context"
	"sync"
	"sync/atomic"
)

// AsyncGenState mirrors the §3 state enumeration for introspection/debugging.
type AsyncGenState int32

const (
	StateValueNotReadyConsumerActive AsyncGenState = iota // VNRCA
	StateValueNotReadyConsumerSuspended
	StateValueReadyProducerActive // VRPA
	StateValueReadyProducerSuspended
	StateCancelled
)

// Yield is the callback the producer function calls with each element. It
// returns false once the generator has been cancelled, signalling the
// producer to unwind and return.
type Yield[T any] func(ctx context.Context, value T) bool

// AsyncGenerator is a lazy asynchronous producer/consumer sequence. The zero
// value is not usable; construct with NewAsyncGenerator.
type AsyncGenerator[T any] struct {
	produce func(ctx context.Context, yield Yield[T]) error

	valueCh  chan T
	resumeCh chan struct{}
	errCh    chan error

	cancelled chan struct{}
	state     atomic.Int32

	startOnce sync.Once
	started   atomic.Bool
}

// NewAsyncGenerator constructs an AsyncGenerator around a producer function.
// produce must call yield for every element and return when exhausted; a
// non-nil return value is stored and rethrown from the next Advance (spec
// §4.4 "unhandled failures... are stored and rethrown").
func NewAsyncGenerator[T any](produce func(ctx context.Context, yield Yield[T]) error) *AsyncGenerator[T] {
	g := &AsyncGenerator[T]{
		produce:   produce,
		valueCh:   make(chan T),
		resumeCh:  make(chan struct{}),
		errCh:     make(chan error, 1),
		cancelled: make(chan struct{}),
	}
	g.state.Store(int32(StateValueReadyProducerSuspended)) // initial, per spec §3
	return g
}

func (g *AsyncGenerator[T]) run(ctx context.Context) {
	yield := func(ctx context.Context, v T) bool {
		select {
		case g.valueCh <- v:
			g.state.Store(int32(StateValueReadyProducerSuspended))
		case <-g.cancelled:
			return false
		case <-ctx.Done():
			return false
		}
		select {
		case <-g.resumeCh:
			g.state.Store(int32(StateValueNotReadyConsumerActive))
			return true
		case <-g.cancelled:
			return false
		case <-ctx.Done():
			return false
		}
	}

	err := g.produce(ctx, yield)

	select {
	case <-g.cancelled:
		// Cancellation suppresses a trailing producer failure (spec §4.4).
	default:
		g.errCh <- err
	}
	close(g.errCh)
}

// Advance drives the producer to its next value. It returns (value, true,
// nil) on a new element, (zero, false, nil) on clean exhaustion, or (zero,
// false, err) if the producer failed or ctx was cancelled.
func (g *AsyncGenerator[T]) Advance(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case <-g.cancelled:
		return zero, false, nil
	default:
	}

	g.startOnce.Do(func() { go g.run(ctx) })

	if g.started.Swap(true) {
		g.state.Store(int32(StateValueNotReadyConsumerActive))
		select {
		case g.resumeCh <- struct{}{}:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case <-g.cancelled:
			return zero, false, nil
		}
	}

	select {
	case v := <-g.valueCh:
		g.state.Store(int32(StateValueReadyProducerActive))
		return v, true, nil
	case err, ok := <-g.errCh:
		if !ok {
			err = nil
		}
		return zero, false, err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case <-g.cancelled:
		return zero, false, nil
	}
}

// Cancel initiates producer cancellation (spec §4.4/§5). If the producer is
// currently blocked offering a value or waiting to be resumed, it observes
// the cancellation immediately and unwinds; otherwise it self-destructs at
// its next yield or return. Cancel is idempotent.
func (g *AsyncGenerator[T]) Cancel() {
	select {
	case <-g.cancelled:
		return
	default:
	}
	g.state.Store(int32(StateCancelled))
	close(g.cancelled)
}

// State returns the current rendezvous state, for tests/debugging only.
func (g *AsyncGenerator[T]) State() AsyncGenState {
	return AsyncGenState(g.state.Load())
}
