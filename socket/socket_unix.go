// File: socket/socket_unix.go
//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking descriptor creation and the EAGAIN-driven suspend/retry loop
// that backs Socket.Recv/Send on Unix-like platforms.

package socket

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/reactor"
)

// newNonblockingTCPSocket creates a non-blocking IPv4 TCP socket with
// TCP_NODELAY set. It does not connect it (kept minimal here per spec §4.6,
// which scopes Socket to wrapping an already-addressed descriptor).
func newNonblockingTCPSocket() (uintptr, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return 0, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return 0, fmt.Errorf("setsockopt TCP_NODELAY: %w", err)
	}
	return uintptr(fd), nil
}

// Accepted wraps an already-accepted non-blocking client descriptor.
func Accepted(fd uintptr, rx reactor.Reactor) *Socket {
	return New(fd, rx)
}

// recvRaw reads once per reactor-reported readiness, retrying on EAGAIN.
func (s *Socket) recvRaw(ctx context.Context, buf []byte) (int, error) {
	for {
		n, err := unix.Read(int(s.fd), buf)
		if err == nil {
			return n, nil
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			if werr := s.awaitReady(ctx, reactor.EventRead); werr != nil {
				return 0, werr
			}
			continue
		}
		if err == unix.ECONNRESET || err == unix.ETIMEDOUT {
			return 0, wrapFatal("recv", err)
		}
		return 0, wrapFatal("recv", err)
	}
}

// sendRaw writes the full buffer, suspending on backpressure.
func (s *Socket) sendRaw(ctx context.Context, data []byte) (bool, error) {
	off := 0
	for off < len(data) {
		n, err := unix.Write(int(s.fd), data[off:])
		if err == nil {
			off += n
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			if werr := s.awaitReady(ctx, reactor.EventWrite); werr != nil {
				return false, werr
			}
			continue
		}
		if err == unix.EPIPE || err == unix.ECONNRESET {
			return false, nil
		}
		return false, wrapFatal("send", err)
	}
	return true, nil
}

// awaitReady registers one-shot interest in evt and suspends the calling
// goroutine until the reactor fires it or ctx is cancelled.
func (s *Socket) awaitReady(ctx context.Context, evt reactor.FDEventType) error {
	done := make(chan reactor.FDEventType, 1)
	if err := s.rx.Register(s.fd, evt, func(_ uintptr, fired reactor.FDEventType) {
		done <- fired
	}); err != nil {
		return neterr.Transport("reactor register", 0, err)
	}
	select {
	case fired := <-done:
		if fired&reactor.EventError != 0 {
			return neterr.Transport("recv/send", 0, errors.New("descriptor reported error readiness"))
		}
		return nil
	case <-ctx.Done():
		_ = s.rx.Unregister(s.fd)
		return ctx.Err()
	}
}

// setOption applies nodelay/reuseaddr toggles to an already-open descriptor.
func (s *Socket) setOption(opt Option, enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	switch opt {
	case OptNoDelay:
		if err := unix.SetsockoptInt(int(s.fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, v); err != nil {
			return wrapFatal("setsockopt nodelay", err)
		}
	case OptReuseAddr:
		if err := unix.SetsockoptInt(int(s.fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, v); err != nil {
			return wrapFatal("setsockopt reuseaddr", err)
		}
	}
	return nil
}

// closeFD shuts down and releases the descriptor, tolerating EBADF (already closed elsewhere).
func (s *Socket) closeFD() error {
	_ = unix.Shutdown(int(s.fd), unix.SHUT_RDWR)
	if err := unix.Close(int(s.fd)); err != nil && err != unix.EBADF {
		return wrapFatal("close", err)
	}
	return nil
}
