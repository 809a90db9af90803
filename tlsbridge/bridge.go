// File: tlsbridge/bridge.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge implements socket.TLSBridge: it owns a *tls.Conn layered over a
// rawConn adapter, giving every accepted connection its own per-connection
// TLS state cloned from the server's shared *tls.Config (spec §4.7 "each
// accepted connection receives its own per-connection TLS instance cloned
// from the server context").

package tlsbridge

import (
	"context"
	"crypto/tls"
	"errors"
	"io"

	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/socket"
)

// ErrPeerClosed signals an orderly close observed while reading/writing the
// raw transport underneath the TLS layer.
var ErrPeerClosed = errors.New("tlsbridge: peer closed")

// Bridge adapts one accepted socket.Socket to TLS using the given config.
type Bridge struct {
	cfg  *tls.Config
	conn *rawConn
	tls  *tls.Conn

	alpn string
}

// NewServerBridge clones cfg (per spec §4.7, one clone per connection) and
// wraps sock for a server-side handshake.
func NewServerBridge(ctx context.Context, sock *socket.Socket, cfg *tls.Config) *Bridge {
	rc := newRawConn(ctx, sock)
	return &Bridge{cfg: cfg.Clone(), conn: rc}
}

// Handshake performs the TLS handshake, looping crypto/tls's own internal
// WANT_READ/WANT_WRITE retries through rawConn's blocking Read/Write, which
// in turn suspend on socket.Socket's reactor-driven recv/send.
func (b *Bridge) Handshake(ctx context.Context) error {
	b.conn.ctx = ctx
	b.tls = tls.Server(b.conn, b.cfg)
	if err := b.tls.HandshakeContext(ctx); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrPeerClosed) {
			return socket.ErrClosed
		}
		return neterr.TLS("tls handshake", err)
	}
	b.alpn = b.tls.ConnectionState().NegotiatedProtocol
	return nil
}

// Recv reads decrypted bytes into buf. A zero-length, nil-error result
// signals an orderly TLS close-notify (spec §8 "TLS close-notify ... ends
// cleanly").
func (b *Bridge) Recv(ctx context.Context, buf []byte) (int, error) {
	b.conn.ctx = ctx
	n, err := b.tls.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrPeerClosed) {
			return 0, nil
		}
		return 0, neterr.TLS("tls recv", err)
	}
	return n, nil
}

// Send writes the full buffer through the TLS layer.
func (b *Bridge) Send(ctx context.Context, data []byte) (bool, error) {
	b.conn.ctx = ctx
	if _, err := b.tls.Write(data); err != nil {
		if errors.Is(err, ErrPeerClosed) {
			return false, nil
		}
		return false, neterr.TLS("tls send", err)
	}
	return true, nil
}

// Close sends a close-notify and tears down the TLS layer.
func (b *Bridge) Close() error {
	if b.tls == nil {
		return nil
	}
	_ = b.tls.Close()
	return nil
}

// ALPN returns the protocol negotiated during Handshake, cached per spec
// §4.7 ("ALPN is queried after a successful handshake and cached").
func (b *Bridge) ALPN() string { return b.alpn }
