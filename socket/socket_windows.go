// File: socket/socket_windows.go
//go:build windows

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows raw socket I/O backing Socket.Recv/Send. This is a best-effort,
// simplified completion-driven path, matching the teacher's own admittedly
// partial Windows transport sketches rather than a full IOCP overlapped-I/O
// implementation: reads and writes are issued directly against the socket
// handle and retried when the reactor reports completion-port readiness.

package socket

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/reactor"
)

func newNonblockingTCPSocket() (uintptr, error) {
	sock, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return 0, fmt.Errorf("socket create: %w", err)
	}
	if err := windows.SetsockoptInt(sock, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1); err != nil {
		windows.Closesocket(sock)
		return 0, fmt.Errorf("setsockopt TCP_NODELAY: %w", err)
	}
	return uintptr(sock), nil
}

// Accepted wraps an already-accepted client socket handle.
func Accepted(fd uintptr, rx reactor.Reactor) *Socket {
	return New(fd, rx)
}

func (s *Socket) recvRaw(ctx context.Context, buf []byte) (int, error) {
	h := windows.Handle(s.fd)
	for {
		n, err := windows.Recv(h, buf, 0)
		if err == nil {
			return n, nil
		}
		if err == windows.WSAEWOULDBLOCK {
			if werr := s.awaitReady(ctx, reactor.EventRead); werr != nil {
				return 0, werr
			}
			continue
		}
		return 0, wrapFatal("recv", err)
	}
}

func (s *Socket) sendRaw(ctx context.Context, data []byte) (bool, error) {
	h := windows.Handle(s.fd)
	off := 0
	for off < len(data) {
		n, err := windows.Send(h, data[off:], 0)
		if err == nil {
			off += n
			continue
		}
		if err == windows.WSAEWOULDBLOCK {
			if werr := s.awaitReady(ctx, reactor.EventWrite); werr != nil {
				return false, werr
			}
			continue
		}
		if err == windows.WSAECONNRESET {
			return false, nil
		}
		return false, wrapFatal("send", err)
	}
	return true, nil
}

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
			return neterr.Transport("recv/send", 0, errors.New("handle reported error readiness"))
		}
		return nil
	case <-ctx.Done():
		_ = s.rx.Unregister(s.fd)
		return ctx.Err()
	}
}

func (s *Socket) setOption(opt Option, enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	h := windows.Handle(s.fd)
	switch opt {
	case OptNoDelay:
		if err := windows.SetsockoptInt(h, windows.IPPROTO_TCP, windows.TCP_NODELAY, v); err != nil {
			return wrapFatal("setsockopt nodelay", err)
		}
	case OptReuseAddr:
		if err := windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_REUSEADDR, v); err != nil {
			return wrapFatal("setsockopt reuseaddr", err)
		}
	}
	return nil
}

func (s *Socket) closeFD() error {
	h := windows.Handle(s.fd)
	_ = windows.Shutdown(h, windows.SHUT_RDWR)
	if err := windows.Closesocket(h); err != nil {
		return wrapFatal("close", err)
	}
	return nil
}
