// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server implements spec §4.9: create resolves the address and binds a
// listening socket, configure attaches a TLS server context built from a
// certificate bundle, and accept yields an async sequence of accepted
// sockets, each with a freshly-cloned TLS bridge attached when TLS is
// configured.

package server

import (
	"context"
	"crypto/tls"
	"errors"

	"github.com/momentics/hioload-async/certloader"
	"github.com/momentics/hioload-async/coroutine"
	"github.com/momentics/hioload-async/reactor"
	"github.com/momentics/hioload-async/socket"
	"github.com/momentics/hioload-async/tlsbridge"
)

// Server owns one listening socket, the reactor that drives every suspended
// operation beneath it, and an optional TLS server context.
type Server struct {
	cfg *Config
	rx  reactor.Reactor
	ln  *socket.Listener

	bundle    *certloader.Bundle
	tlsConfig *tls.Config
}

// Create resolves host:port, builds the platform reactor, and binds a
// non-blocking listening socket with SO_REUSEADDR (spec §4.9 "create").
func Create(host string, port int, opts ...Option) (*Server, error) {
	cfg := DefaultConfig()
	cfg.Host, cfg.Port = host, port
	for _, o := range opts {
		o(cfg)
	}

	rx, err := reactor.New()
	if err != nil {
		return nil, err
	}
	ln, err := socket.Listen(rx, cfg.Host, cfg.Port, cfg.Backlog)
	if err != nil {
		_ = rx.Close()
		return nil, err
	}

	s := &Server{cfg: cfg, rx: rx, ln: ln}
	if cfg.CertPath != "" {
		if err := s.Configure(cfg.CertPath, cfg.ALPN); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Configure loads a certificate bundle (spec §6) and builds the shared TLS
// server context cloned per connection. A no-op is not possible once called
// with a path; calling it with an empty certPath at Create time is skipped
// entirely (spec §4.9 "no-op if called without a certificate").
func (s *Server) Configure(certPath, alpn string) error {
	bundle, err := certloader.Load(certPath)
	if err != nil {
		return err
	}
	if s.bundle != nil {
		_ = s.bundle.Close()
	}
	s.bundle = bundle
	s.tlsConfig = tlsbridge.ServerConfig(bundle.Cert, alpn)
	return nil
}

// Accept returns the async sequence of accepted sockets (spec §4.9). Each
// socket has a per-connection TLS bridge attached, cloned from the shared
// server context, when Configure was called. Recoverable accept failures
// are absorbed by socket.Listener.Accept and never surface here; fatal
// failures and context cancellation end the sequence.
func (s *Server) Accept(ctx context.Context) *coroutine.AsyncGenerator[*socket.Socket] {
	return coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[*socket.Socket]) error {
		for {
			sock, err := s.ln.Accept(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
			if s.tlsConfig != nil {
				sock.AttachTLS(tlsbridge.NewServerBridge(ctx, sock, s.tlsConfig))
			}
			if !yield(ctx, sock) {
				_ = sock.Close()
				return nil
			}
		}
	})
}

// Run blocks the reactor loop until ctx is cancelled or Close is called
// (spec §6 "service.run(cpu=-1) | blocks until close"). Callers typically
// start Run in its own goroutine alongside an Accept consumer.
func (s *Server) Run(ctx context.Context) error {
	return s.rx.Run(ctx)
}

// Close stops accepting new connections, releases the listening socket and
// certificate mapping, and shuts down the reactor (spec §6 "service.close").
// Applications must close accepted sockets themselves before calling Close
// (spec §5 "Applications must close sockets before closing the service").
func (s *Server) Close() error {
	var first error
	if err := s.ln.Close(); err != nil && first == nil {
		first = err
	}
	if s.bundle != nil {
		if err := s.bundle.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := s.rx.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
