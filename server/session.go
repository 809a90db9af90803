// File: server/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// session glues Accept -> Handshake -> httpframe.Framer.Requests -> request dispatch
// into the per-connection loop the original session.cpp drives (see
// SPEC_FULL.md §4). Per spec §9 "Reference cycles": the accept loop hands
// each accepted socket to a goroutine that owns it end to end; the
// goroutine's lifetime is the connection's lifetime, with no shared-pointer
// cycle to reason about.

package server

import (
	"context"

	"github.com/momentics/hioload-async/httpframe"
	"github.com/momentics/hioload-async/socket"
)

// Handler processes one fully-headered request. It must Advance req.Body()
// to completion (even for a zero-length body) before returning: the framer
// blocks the next pipelined request on that final handoff (spec §8
// scenario 3).
type Handler func(ctx context.Context, req *httpframe.Request) error

// Serve starts the reactor loop, then accepts connections until ctx is
// cancelled or Close is called, dispatching each to its own session
// goroutine. Serve blocks until the accept sequence ends.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	runErr := make(chan error, 1)
	go func() { runErr <- s.rx.Run(ctx) }()

	logger := s.cfg.logger
	if logger == nil {
		logger = defaultLogger
	}

	accepted := s.Accept(ctx)
	for {
		sock, ok, err := accepted.Advance(ctx)
		if err != nil {
			// Fatal failures propagate out of the accept sequence per spec §7;
			// per-connection failures never reach here (they're inside
			// runSession's own goroutine).
			return err
		}
		if !ok {
			break
		}
		go runSession(ctx, sock, s.cfg.ChunkSize, handler, logger)
	}
	return <-runErr
}

// runSession owns sock for its entire lifetime: handshake, the HTTP request
// loop, and the final close. Per spec §7 ("the outer accept loop logs and
// continues on per-connection failures"), a failure here ends only this
// connection's goroutine.
func runSession(ctx context.Context, sock *socket.Socket, chunkSize int, handler Handler, logger Logger) {
	defer sock.Close()

	ok, err := sock.Handshake(ctx)
	if err != nil {
		logger.Errorf("handshake: %v", err)
		return
	}
	if !ok {
		return // peer closed during handshake
	}

	framer := httpframe.NewFramer(sock, chunkSize)
	reqs := framer.Requests()
	for {
		req, ok, err := reqs.Advance(ctx)
		if err != nil {
			logger.Errorf("request parse: %v", err)
			return
		}
		if !ok {
			return
		}
		if err := handler(ctx, req); err != nil {
			logger.Errorf("handler: %v", err)
			return
		}
		if !req.KeepAlive {
			return
		}
	}
}
