//go:build darwin || freebsd || netbsd || openbsd || dragonfly

// File: reactor/reactor_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// kqueue(2)-based reactor for Darwin/BSD, mirroring the one-shot
// register/fire/drop contract of the Linux epoll reactor.

package reactor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type kqueueReactor struct {
	kq int

	mu        sync.Mutex
	callbacks map[uintptr]FDCallback
}

// New constructs the kqueue-backed Reactor.
func New() (Reactor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("reactor: kqueue: %w", err)
	}
	return &kqueueReactor{
		kq:        kq,
		callbacks: make(map[uintptr]FDCallback),
	}, nil
}

func (r *kqueueReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	changes := make([]unix.Kevent_t, 0, 2)
	if events&EventRead != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  unix.EV_ADD | unix.EV_ONESHOT,
		})
	}
	if events&EventWrite != 0 {
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  unix.EV_ADD | unix.EV_ONESHOT,
		})
	}

	r.mu.Lock()
	r.callbacks[fd] = cb
	r.mu.Unlock()

	if _, err := unix.Kevent(r.kq, changes, nil, nil); err != nil {
		return fmt.Errorf("reactor: kevent register: %w", err)
	}
	return nil
}

func (r *kqueueReactor) Unregister(fd uintptr) error {
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	r.mu.Lock()
	delete(r.callbacks, fd)
	r.mu.Unlock()
	// EV_DELETE on an unregistered filter returns ENOENT; ignore.
	_, _ = unix.Kevent(r.kq, changes, nil, nil)
	return nil
}

func (r *kqueueReactor) Run(ctx context.Context) error {
	events := make([]unix.Kevent_t, 128)
	timeout := unix.NsecToTimespec(100_000_000) // 100ms, mirrors the epoll poll burst

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := unix.Kevent(r.kq, nil, events, &timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reactor: kevent wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := uintptr(events[i].Ident)

			r.mu.Lock()
			cb, ok := r.callbacks[fd]
			if ok {
				delete(r.callbacks, fd)
			}
			r.mu.Unlock()
			if !ok {
				continue
			}

			var fired FDEventType
			switch events[i].Filter {
			case unix.EVFILT_READ:
				fired |= EventRead
			case unix.EVFILT_WRITE:
				fired |= EventWrite
			}
			if events[i].Flags&unix.EV_ERROR != 0 {
				fired |= EventError
			}
			cb(fd, fired)
		}
	}
}

func (r *kqueueReactor) Close() error {
	return unix.Close(r.kq)
}
