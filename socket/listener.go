// File: socket/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener implements the server.create/server.accept half of spec §4.9:
// resolve the address (AI_PASSIVE), create a non-blocking socket, set
// SO_REUSEADDR, bind and listen. Accept suspends on the reactor exactly like
// Socket.Recv/Send, retrying the accept syscall on EAGAIN.

package socket

import (
	"context"
	"fmt"
	"net"

	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/reactor"
)

// Listener wraps a bound, listening, non-blocking descriptor.
type Listener struct {
	fd uintptr
	rx reactor.Reactor
}

// Listen resolves host:port (AI_PASSIVE semantics: an empty host binds all
// interfaces), creates a non-blocking TCP socket with SO_REUSEADDR, binds
// and listens with the given backlog.
func Listen(rx reactor.Reactor, host string, port int, backlog int) (*Listener, error) {
	ip, err := resolveBindAddr(host)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %s:%d: %w", host, port, err)
	}
	if backlog <= 0 {
		backlog = 128
	}
	fd, err := createListenSocket(ip, port, backlog)
	if err != nil {
		return nil, err
	}
	return &Listener{fd: fd, rx: rx}, nil
}

// FD returns the raw listening descriptor.
func (l *Listener) FD() uintptr { return l.fd }

// Accept suspends until a connection is pending, then returns a non-blocking
// Socket wrapping the accepted descriptor. Recoverable accept failures
// (peer reset before accept completed) are retried transparently; fatal
// failures are returned.
func (l *Listener) Accept(ctx context.Context) (*Socket, error) {
	for {
		fd, recoverable, err := acceptRaw(l.fd)
		if err == nil {
			return Accepted(fd, l.rx), nil
		}
		if recoverable {
			if werr := l.awaitAcceptReady(ctx); werr != nil {
				return nil, werr
			}
			continue
		}
		return nil, neterr.Transport("accept", 0, err)
	}
}

func (l *Listener) awaitAcceptReady(ctx context.Context) error {
	done := make(chan reactor.FDEventType, 1)
	if err := l.rx.Register(l.fd, reactor.EventRead, func(_ uintptr, fired reactor.FDEventType) {
		done <- fired
	}); err != nil {
		return neterr.Transport("reactor register", 0, err)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		_ = l.rx.Unregister(l.fd)
		return ctx.Err()
	}
}

// Close stops accepting new connections and releases the descriptor.
func (l *Listener) Close() error {
	_ = l.rx.Unregister(l.fd)
	return closeListenFD(l.fd)
}

func resolveBindAddr(host string) (net.IP, error) {
	if host == "" {
		return net.IPv4zero, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 address for host %q", host)
}
