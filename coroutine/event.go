// File: coroutine/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// SingleConsumerEvent is the three-state {not-set, not-set-with-waiter, set}
// rendezvous from spec §3. At most one awaiter is ever suspended on it;
// Set on a not-set-with-waiter event resumes the waiter, Reset is only ever
// legal from the consumer side.

package coroutine

import (
	"context"
	"sync"
)

// SingleConsumerEvent is a single-awaiter, manually-reset synchronization point.
type SingleConsumerEvent struct {
	mu     sync.Mutex
	isSet  bool
	waiter chan struct{}
}

// NewSingleConsumerEvent constructs an event in the not-set state.
func NewSingleConsumerEvent() *SingleConsumerEvent {
	return &SingleConsumerEvent{}
}

// Set marks the event as set, idempotently. If a consumer is waiting, it is resumed.
func (e *SingleConsumerEvent) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isSet {
		return
	}
	e.isSet = true
	if e.waiter != nil {
		close(e.waiter)
		e.waiter = nil
	}
}

// Wait blocks until Set is called (returning immediately if already set).
// Calling Wait while another Wait is outstanding is a misuse; it panics.
func (e *SingleConsumerEvent) Wait(ctx context.Context) error {
	e.mu.Lock()
	if e.isSet {
		e.mu.Unlock()
		return nil
	}
	if e.waiter != nil {
		e.mu.Unlock()
		panic("coroutine: SingleConsumerEvent already has a waiter")
	}
	ch := make(chan struct{})
	e.waiter = ch
	e.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		e.mu.Lock()
		if e.waiter == ch {
			e.waiter = nil
		}
		e.mu.Unlock()
		return ctx.Err()
	}
}

// Reset returns the event to the not-set state. Only the consumer calls this,
// after observing Set, before awaiting again.
func (e *SingleConsumerEvent) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isSet = false
}
