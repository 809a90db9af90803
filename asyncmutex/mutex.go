// File: asyncmutex/mutex.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncmutex

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
)

// waiter state transitions: waiting -> granted (Unlock won the handoff) or
// waiting -> abandoned (LockAsync's ctx fired first). Exactly one of the two
// CompareAndSwaps below succeeds for a given waiter, so Unlock and a
// cancelling LockAsync never disagree about who ends up owning the lock.
const (
	waiterWaiting int32 = iota
	waiterGranted
	waiterAbandoned
)

// waiter is one pending lock attempt. resume is closed once state is
// CAS'd to waiterGranted, transferring ownership.
type waiter struct {
	next   *waiter
	resume chan struct{}
	state  atomic.Int32
}

// Mutex is a strictly-FIFO asynchronous mutex (spec §4.5). New arrivals are
// pushed lock-free onto a LIFO stack; on Unlock, if the FIFO active queue is
// empty, the arrival stack is stolen and reversed into it, so fairness holds
// globally across unlock boundaries rather than only within one arrival burst.
type Mutex struct {
	locked atomic.Bool

	arrivals atomic.Pointer[waiter]

	activeMu sync.Mutex
	active   *queue.Queue
}

// New constructs an unlocked Mutex.
func New() *Mutex {
	return &Mutex{active: queue.New()}
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// LockAsync blocks until the mutex is acquired or ctx is done. On ctx
// cancellation, the waiter races Unlock for its own state: if it wins, it
// gives up its queue slot and Unlock skips it when it is later dequeued; if
// Unlock already granted it ownership, LockAsync accepts the lock and
// immediately releases it, rather than returning an error while silently
// holding the mutex forever.
func (m *Mutex) LockAsync(ctx context.Context) error {
	if m.TryLock() {
		return nil
	}

	w := &waiter{resume: make(chan struct{})}
	for {
		head := m.arrivals.Load()
		w.next = head
		if m.arrivals.CompareAndSwap(head, w) {
			break
		}
	}

	select {
	case <-w.resume:
		return nil
	case <-ctx.Done():
		if w.state.CompareAndSwap(waiterWaiting, waiterAbandoned) {
			return ctx.Err()
		}
		<-w.resume // already closed: Unlock won the race and granted us the lock
		m.Unlock()
		return ctx.Err()
	}
}

// Unlock releases the mutex. If waiters are queued, ownership transfers
// directly to the FIFO head that hasn't been abandoned by a ctx cancellation
// (the mutex remains "locked" the whole time); otherwise the mutex becomes
// available.
func (m *Mutex) Unlock() {
	for {
		w := m.nextActive()
		if w == nil {
			if !m.refillFromArrivals() {
				m.locked.Store(false)
				return
			}
			continue
		}
		if w.state.CompareAndSwap(waiterWaiting, waiterGranted) {
			close(w.resume)
			return
		}
		// w's LockAsync already gave up; it owns nothing, try the next one.
	}
}

// nextActive pops the next waiter off the FIFO active queue, or nil if empty.
func (m *Mutex) nextActive() *waiter {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	if m.active.Length() == 0 {
		return nil
	}
	return m.active.Remove().(*waiter)
}

// refillFromArrivals steals the LIFO arrival stack, reverses it into FIFO
// order, and appends it to the active queue. Reports whether anything was
// added.
func (m *Mutex) refillFromArrivals() bool {
	head := m.arrivals.Swap(nil)
	if head == nil {
		return false
	}

	var reversed *waiter
	for head != nil {
		next := head.next
		head.next = reversed
		reversed = head
		head = next
	}

	m.activeMu.Lock()
	for reversed != nil {
		next := reversed.next
		m.active.Add(reversed)
		reversed = next
	}
	m.activeMu.Unlock()
	return true
}

// Guard releases the associated Mutex exactly once when Release is called.
type Guard struct {
	mu       *Mutex
	released atomic.Bool
}

// Release unlocks the guarded Mutex. Safe to call more than once; calls
// after the first are no-ops, matching the "scoped_lock_async ... unlocks on scope
// exit" contract from spec §4.5 without relying on Go defer semantics alone.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.mu.Unlock()
	}
}

// ScopedLockAsync acquires the mutex and returns a Guard that releases it.
func (m *Mutex) ScopedLockAsync(ctx context.Context) (*Guard, error) {
	if err := m.LockAsync(ctx); err != nil {
		return nil, err
	}
	return &Guard{mu: m}, nil
}
