// File: tlsbridge/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tlsbridge

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/momentics/hioload-async/socket"
)

// rawConn adapts socket.Socket to net.Conn so crypto/tls can drive the
// readiness-looped handshake/read/write described in spec §4.7 through its
// own synchronous Read/Write calls.
type rawConn struct {
	sock *socket.Socket
	ctx  context.Context

	mu       sync.Mutex
	deadline time.Time
}

func newRawConn(ctx context.Context, sock *socket.Socket) *rawConn {
	return &rawConn{sock: sock, ctx: ctx}
}

func (c *rawConn) readCtx() (context.Context, context.CancelFunc) {
	c.mu.Lock()
	dl := c.deadline
	c.mu.Unlock()
	if dl.IsZero() {
		return c.ctx, func() {}
	}
	return context.WithDeadline(c.ctx, dl)
}

func (c *rawConn) Read(b []byte) (int, error) {
	ctx, cancel := c.readCtx()
	defer cancel()
	view, err := c.sock.Recv(ctx, b)
	if err != nil {
		return 0, err
	}
	if len(view) == 0 {
		return 0, ErrPeerClosed
	}
	if &view[0] != &b[0] {
		copy(b, view)
	}
	return len(view), nil
}

func (c *rawConn) Write(b []byte) (int, error) {
	ctx, cancel := c.readCtx()
	defer cancel()
	ok, err := c.sock.Send(ctx, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrPeerClosed
	}
	return len(b), nil
}

func (c *rawConn) Close() error                       { return c.sock.Close() }
func (c *rawConn) LocalAddr() net.Addr                 { return noAddr{} }
func (c *rawConn) RemoteAddr() net.Addr                { return noAddr{} }
func (c *rawConn) SetDeadline(t time.Time) error       { c.mu.Lock(); c.deadline = t; c.mu.Unlock(); return nil }
func (c *rawConn) SetReadDeadline(t time.Time) error   { return c.SetDeadline(t) }
func (c *rawConn) SetWriteDeadline(t time.Time) error  { return c.SetDeadline(t) }

type noAddr struct{}

func (noAddr) Network() string { return "tcp" }
func (noAddr) String() string  { return "" }
