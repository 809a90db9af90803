// File: asyncmutex/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package asyncmutex implements the strictly-FIFO, asynchronous mutex from
// spec §4.5: lock-free enqueue of new arrivals onto a LIFO stack, reversed
// into a FIFO active queue on unlock so fairness holds across unlock
// boundaries. The active queue is backed by github.com/eapache/queue, the
// teacher's own (previously unwired) dependency.
package asyncmutex
