// File: socket/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package socket wraps an OS socket descriptor and exposes suspending
// recv/send (spec §4.6): a Recv/Send call blocks the calling goroutine until
// either the operation completes or the reactor reports readiness and the
// syscall is retried. When a TLS bridge is attached (see package tlsbridge),
// recv/send route through it transparently.

package socket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-async/coroutine"
	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/reactor"
)

// ErrClosed is returned for operations on a closed socket, and signals
// orderly peer close from Handshake when propagated internally.
var ErrClosed = errors.New("socket: closed")

// TLSBridge is the subset of tlsbridge.Bridge that Socket depends on. Kept
// as a narrow interface here so socket does not import tlsbridge directly
// (tlsbridge imports socket for its raw transport instead).
type TLSBridge interface {
	Handshake(ctx context.Context) error
	Recv(ctx context.Context, buf []byte) (int, error)
	Send(ctx context.Context, data []byte) (bool, error)
	Close() error
	ALPN() string
}

// Option configures an Option setting applied via Socket.Set.
type Option int

const (
	OptNoDelay Option = iota
	OptReuseAddr
)

// Socket wraps one OS descriptor, a reactor reference, and an optional TLS bridge.
type Socket struct {
	fd  uintptr
	rx  reactor.Reactor
	tls TLSBridge

	closeOnce sync.Once
	closed    atomic.Bool
}

// New wraps an already-created, non-blocking descriptor.
func New(fd uintptr, rx reactor.Reactor) *Socket {
	return &Socket{fd: fd, rx: rx}
}

// FD returns the raw descriptor, for use by the TLS bridge and tests.
func (s *Socket) FD() uintptr { return s.fd }

// AttachTLS installs a TLS bridge; subsequent Handshake/Recv/Send route through it.
func (s *Socket) AttachTLS(b TLSBridge) { s.tls = b }

// Handshake performs the TLS handshake if a bridge is attached, otherwise
// succeeds immediately. Returns false if the peer closed during handshake.
func (s *Socket) Handshake(ctx context.Context) (bool, error) {
	if s.tls == nil {
		return true, nil
	}
	if err := s.tls.Handshake(ctx); err != nil {
		if err == ErrClosed {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Recv reads into buf, suspending until data is available. An empty, nil-error
// result signals an orderly close (spec §7).
func (s *Socket) Recv(ctx context.Context, buf []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.tls != nil {
		n, err := s.tls.Recv(ctx, buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
	n, err := s.recvRaw(ctx, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Send writes the full buffer, suspending as needed. Returns false on orderly close.
func (s *Socket) Send(ctx context.Context, data []byte) (bool, error) {
	if s.closed.Load() {
		return false, ErrClosed
	}
	if s.tls != nil {
		return s.tls.Send(ctx, data)
	}
	return s.sendRaw(ctx, data)
}

// RecvStream wraps Recv in an AsyncGenerator of byte views (spec §6
// "socket.recv(size) -> async sequence of byte-views"), ending on orderly close.
func (s *Socket) RecvStream(bufSize int) *coroutine.AsyncGenerator[[]byte] {
	return coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[[]byte]) error {
		buf := make([]byte, bufSize)
		for {
			view, err := s.Recv(ctx, buf)
			if err != nil {
				return err
			}
			if len(view) == 0 {
				return nil // orderly close
			}
			if !yield(ctx, view) {
				return nil
			}
		}
	})
}

// Set applies a socket option (spec §6 "socket.set(option,enable) -> error-code",
// supplemented per original_source's utility.cpp, which exposes more than
// nodelay).
func (s *Socket) Set(opt Option, enable bool) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.setOption(opt, enable)
}

// ALPN returns the negotiated protocol after a TLS handshake, or "" if TLS is not in use.
func (s *Socket) ALPN() string {
	if s.tls == nil {
		return ""
	}
	return s.tls.ALPN()
}

// Close idempotently tears down the TLS bridge (if any) then the descriptor.
func (s *Socket) Close() error {
	// A close already in progress re-enters here through the TLS bridge's
	// transport (tls.Conn.Close -> rawConn.Close); returning early keeps that
	// nested call out of closeOnce.Do, which would otherwise deadlock.
	if s.closed.Load() {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		_ = s.rx.Unregister(s.fd)
		if s.tls != nil {
			_ = s.tls.Close()
		}
		err = s.closeFD()
	})
	return err
}

func wrapFatal(op string, err error) error {
	return neterr.Transport(op, 0, err)
}
