//go:build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based reactor. One-shot interests are registered with
// EPOLL_CTL_ADD/MOD and removed with EPOLL_CTL_DEL as soon as they fire,
// matching the readiness-based transport contract in spec §4.1.

package reactor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type epollReactor struct {
	epfd int

	mu        sync.Mutex
	callbacks map[uintptr]FDCallback
	added     map[uintptr]bool
}

// New constructs the Linux epoll-backed Reactor.
func New() (Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollReactor{
		epfd:      epfd,
		callbacks: make(map[uintptr]FDCallback),
		added:     make(map[uintptr]bool),
	}, nil
}

func toEpollEvents(events FDEventType) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func (r *epollReactor) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}

	r.mu.Lock()
	op := unix.EPOLL_CTL_MOD
	if !r.added[fd] {
		op = unix.EPOLL_CTL_ADD
	}
	r.callbacks[fd] = cb
	r.added[fd] = true
	r.mu.Unlock()

	if err := unix.EpollCtl(r.epfd, op, int(fd), ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl: %w", err)
	}
	return nil
}

func (r *epollReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	present := r.added[fd]
	delete(r.callbacks, fd)
	delete(r.added, fd)
	r.mu.Unlock()

	if !present {
		return nil
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("reactor: epoll_ctl del: %w", err)
	}
	return nil
}

// Run polls in short bursts so ctx cancellation is observed promptly without
// an extra self-pipe/eventfd descriptor.
func (r *epollReactor) Run(ctx context.Context) error {
	const pollTimeoutMs = 100
	var events [128]unix.EpollEvent

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := unix.EpollWait(r.epfd, events[:], pollTimeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reactor: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := uintptr(events[i].Fd)

			r.mu.Lock()
			cb, ok := r.callbacks[fd]
			if ok {
				delete(r.callbacks, fd)
				delete(r.added, fd)
			}
			r.mu.Unlock()
			if !ok {
				continue
			}
			_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)

			var fired FDEventType
			if events[i].Events&unix.EPOLLIN != 0 {
				fired |= EventRead
			}
			if events[i].Events&unix.EPOLLOUT != 0 {
				fired |= EventWrite
			}
			if events[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				fired |= EventError
			}
			cb(fd, fired)
		}
	}
}

func (r *epollReactor) Close() error {
	return unix.Close(r.epfd)
}
