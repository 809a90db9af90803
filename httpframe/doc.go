// File: httpframe/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package httpframe turns a socket.Socket's byte stream into a sequence of
// HTTP/1.x Requests (spec §4.8): headers are fully materialized before a
// Request is yielded, while the body streams lazily through its own
// AsyncGenerator, run by a goroutine started the first time its consumer
// advances it (spec §9's design note: a second "consumed" event alongside
// the body handoff is a known race in one variant of the source and must
// not be added — one rendezvous point per chunk is enough).
package httpframe
