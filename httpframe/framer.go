// File: httpframe/framer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Framer drives the HTTP/1.x request lifecycle from spec §4.8: parse
// headers, yield the Request, stream its body, repeat. It reads raw bytes
// from a socket.Socket's RecvStream and tolerates byte-at-a-time arrival
// (spec §8 "Chunked arrival").

package httpframe

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/momentics/hioload-async/coroutine"
	"github.com/momentics/hioload-async/neterr"
	"github.com/momentics/hioload-async/socket"
)

const defaultChunkSize = 4096

// Framer incrementally parses one socket's byte stream into Requests.
type Framer struct {
	raw       *coroutine.AsyncGenerator[[]byte]
	buf       []byte
	sockEOF   bool
	chunkSize int
}

// NewFramer wraps sock. chunkSize controls both the socket read size and
// the maximum body chunk size handed to consumers.
func NewFramer(sock *socket.Socket, chunkSize int) *Framer {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return NewFramerFromStream(sock.RecvStream(chunkSize), chunkSize)
}

// NewFramerFromStream builds a Framer directly from a byte-chunk stream,
// bypassing socket.Socket. Used by tests and by callers that already have
// an AsyncGenerator[[]byte] (e.g. a pipe in front of a real socket).
func NewFramerFromStream(raw *coroutine.AsyncGenerator[[]byte], chunkSize int) *Framer {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Framer{raw: raw, chunkSize: chunkSize}
}

// Requests returns the async sequence of fully-headered Request objects
// (spec §6 "http_recv(socket,size=4096) -> async sequence of request").
//
// Each Request's body generator runs in its own goroutine, started the
// first time its consumer calls req.Body().Advance — not by a further
// Advance of the returned sequence here. That goroutine is the only thing
// that touches f.buf until it finishes, so this producer blocks on its
// completion (bodyDone) rather than racing it; the next header block is
// only parsed once the previous body generator has ended.
func (f *Framer) Requests() *coroutine.AsyncGenerator[*Request] {
	return coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[*Request]) error {
		for {
			req, err := f.parseHeaders(ctx)
			if err != nil {
				return err
			}
			if req == nil {
				return nil // clean end of stream between requests
			}

			bodyDone := make(chan error, 1)
			req.body = coroutine.NewAsyncGenerator(func(ctx context.Context, bodyYield coroutine.Yield[[]byte]) error {
				err := f.streamBody(ctx, req, bodyYield)
				bodyDone <- err
				return err
			})

			if !yield(ctx, req) {
				return nil
			}

			select {
			case <-bodyDone:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}

// fill reads more bytes from the socket into buf, recording EOF.
func (f *Framer) fill(ctx context.Context) error {
	if f.sockEOF {
		return nil
	}
	chunk, ok, err := f.raw.Advance(ctx)
	if err != nil {
		return err
	}
	if !ok {
		f.sockEOF = true
		return nil
	}
	f.buf = append(f.buf, chunk...)
	return nil
}

// parseHeaders blocks until a full header block is available, returning a
// new Request, or (nil, nil) on a clean end-of-stream before any bytes of a
// new request arrive.
func (f *Framer) parseHeaders(ctx context.Context) (*Request, error) {
	for {
		if idx := bytes.Index(f.buf, []byte("\r\n\r\n")); idx >= 0 {
			head := f.buf[:idx]
			f.buf = f.buf[idx+4:]
			return f.buildRequest(head)
		}
		if f.sockEOF {
			if len(bytes.TrimSpace(f.buf)) == 0 {
				return nil, nil
			}
			return nil, neterr.Parse("truncated request headers")
		}
		if err := f.fill(ctx); err != nil {
			return nil, err
		}
	}
}

func (f *Framer) buildRequest(head []byte) (*Request, error) {
	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 {
		return nil, neterr.Parse("empty request line")
	}

	req := newRequest()
	if err := parseRequestLine(lines[0], req); err != nil {
		return nil, err
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, neterr.Parse("malformed header line: " + line)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		switch name {
		case "content-length":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, neterr.Parse("invalid Content-Length")
			}
			req.ContentLength = n
		case "connection":
			req.KeepAlive = strings.EqualFold(value, "keep-alive")
		}
		if recognizedHeaders[name] {
			req.Headers[name] = value
		}
	}

	// RFC 7230 default: HTTP/1.1 is keep-alive unless Connection: close;
	// HTTP/1.0 is close unless Connection: keep-alive.
	hasConnHeader := false
	for _, line := range lines[1:] {
		if name, _, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "connection") {
			hasConnHeader = true
		}
	}
	if !hasConnHeader {
		req.KeepAlive = req.Version.Major == 1 && req.Version.Minor == 1
	}

	return req, nil
}

func parseRequestLine(line string, req *Request) error {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return neterr.Parse("malformed request line: " + line)
	}
	req.Method = parts[0]
	if u, _, found := strings.Cut(parts[1], "?"); found {
		req.Path = u
	} else {
		req.Path = parts[1]
	}

	proto := parts[2]
	const prefix = "HTTP/"
	if !strings.HasPrefix(proto, prefix) {
		return neterr.Parse("malformed HTTP version: " + proto)
	}
	major, minor, ok := strings.Cut(strings.TrimPrefix(proto, prefix), ".")
	if !ok {
		return neterr.Parse("malformed HTTP version: " + proto)
	}
	ma, err1 := strconv.Atoi(major)
	mi, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil {
		return neterr.Parse("malformed HTTP version: " + proto)
	}
	req.Version = Version{Major: ma, Minor: mi}
	return nil
}

// streamBody yields body bytes to bodyYield in chunkSize pieces. On
// mid-request transport close it marks req.Closed and ends the sequence
// (spec §4.8 step 7); a normal return ends it after the last chunk.
func (f *Framer) streamBody(ctx context.Context, req *Request, bodyYield coroutine.Yield[[]byte]) error {
	remaining := req.ContentLength
	for remaining > 0 {
		if len(f.buf) == 0 {
			if f.sockEOF {
				req.Closed = true
				return nil
			}
			if err := f.fill(ctx); err != nil {
				return err
			}
			continue
		}
		n := int64(len(f.buf))
		if n > remaining {
			n = remaining
		}
		if n > int64(f.chunkSize) {
			n = int64(f.chunkSize)
		}
		chunk := f.buf[:n]
		f.buf = f.buf[n:]
		remaining -= n
		if !bodyYield(ctx, chunk) {
			return nil
		}
	}
	return nil
}
