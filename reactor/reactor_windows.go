//go:build windows

// File: reactor/reactor_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows IOCP-based reactor. Unlike epoll/kqueue this is completion-based:
// Register associates a handle with the completion port once; callers then
// submit overlapped operations directly (see socket's Windows recv/send
// paths) and Run dequeues completions,
// resuming the coroutine that issued the matching operation.

package reactor

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// completionKey is the per-operation token threaded through GetQueuedCompletionStatus.
type completionKey struct {
	fd uintptr
	cb FDCallback
}

type iocpReactor struct {
	port windows.Handle

	mu      sync.Mutex
	pending map[uintptr]*completionKey
	seq     uintptr
}

// New constructs the Windows IOCP-backed Reactor.
func New() (Reactor, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("reactor: CreateIoCompletionPort: %w", err)
	}
	return &iocpReactor{
		port:    port,
		pending: make(map[uintptr]*completionKey),
	}, nil
}

// Register associates fd (a Windows socket handle) with the completion port.
// Completion-on-success is left enabled by the caller's overlapped submission;
// socket/tlsbridge suppress duplicate completions themselves per spec §4.1.
func (r *iocpReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	r.mu.Lock()
	r.seq++
	key := r.seq
	r.pending[key] = &completionKey{fd: fd, cb: cb}
	r.mu.Unlock()

	h := windows.Handle(fd)
	if _, err := windows.CreateIoCompletionPort(h, r.port, windows.Handle(key), 0); err != nil {
		return fmt.Errorf("reactor: associate: %w", err)
	}
	return nil
}

func (r *iocpReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	for k, v := range r.pending {
		if v.fd == fd {
			delete(r.pending, k)
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *iocpReactor) Run(ctx context.Context) error {
	const pollTimeoutMs = 100

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		var bytes uint32
		var key uintptr
		var overlapped *windows.Overlapped

		err := windows.GetQueuedCompletionStatus(r.port, &bytes, &key, &overlapped, pollTimeoutMs)
		if err != nil {
			if err == windows.WAIT_TIMEOUT {
				continue
			}
			// A failed completion still carries a key/overlapped; surface it to
			// the waiting coroutine rather than dropping the reactor.
		}

		r.mu.Lock()
		entry, ok := r.pending[key]
		if ok {
			delete(r.pending, key)
		}
		r.mu.Unlock()
		if !ok || entry == nil {
			continue
		}

		events := EventRead
		if overlapped != nil && uintptr(unsafe.Pointer(overlapped))&1 != 0 {
			events = EventWrite
		}
		entry.cb(entry.fd, events)
	}
}

func (r *iocpReactor) Close() error {
	return windows.CloseHandle(r.port)
}
