// File: httpframe/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package httpframe

import "github.com/momentics/hioload-async/coroutine"

// Version is the HTTP protocol version as {major, minor}.
type Version struct {
	Major int
	Minor int
}

// recognizedHeaders is the set from spec §4.8; anything else is parsed and
// discarded once Content-Length/Connection have been extracted from it.
var recognizedHeaders = map[string]bool{
	"accept-encoding":   true,
	"cache-control":     true,
	"content-type":      true,
	"cookie":            true,
	"if-modified-since": true,
	"range":             true,
}

// Request is one fully-materialized HTTP request. Headers are complete by
// the time a Request is yielded from Requests(); the body streams lazily
// through its own AsyncGenerator (set by Framer.Requests before the request
// is yielded), driven directly off the framer's byte stream rather than
// requiring a second Advance of Requests() itself (spec §6 "request.body()
// -> async sequence of byte-views").
type Request struct {
	Method        string
	Path          string
	Version       Version
	Headers       map[string]string
	ContentLength int64
	KeepAlive     bool
	Closed        bool

	body *coroutine.AsyncGenerator[[]byte]
}

func newRequest() *Request {
	return &Request{Headers: make(map[string]string)}
}

// Body returns the async sequence of body byte-views for this request. A
// zero-length body ends immediately on the first Advance. Callers must
// drain it to completion (even when empty) before the next pipelined
// request becomes observable (spec §8 scenario 3).
func (r *Request) Body() *coroutine.AsyncGenerator[[]byte] {
	return r.body
}
