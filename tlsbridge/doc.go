// File: tlsbridge/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package tlsbridge adapts crypto/tls onto an asynchronous socket.Socket.
// The source design gives the TLS library two distinct transports: a
// readiness-looped one for Unix (retry on WANT_POLLIN/WANT_POLLOUT) and a
// pluggable-callback one for Windows (on_recv/on_send against a scratch
// buffer). Go's crypto/tls already presents a single synchronous net.Conn
// contract on every platform, and socket.Socket's Recv/Send already hide
// the Unix/Windows readiness difference underneath; bridging simply means
// implementing net.Conn over Socket and letting crypto/tls's own blocking
// Read/Write calls become the suspension points. One conn adapter therefore
// serves both platforms the source spec treats as distinct transports.
package tlsbridge
