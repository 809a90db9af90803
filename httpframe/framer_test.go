package httpframe_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-async/coroutine"
	"github.com/momentics/hioload-async/httpframe"
)

// streamFromChunks builds a byte-chunk AsyncGenerator over fixed pieces, for
// feeding the framer deterministically (including one-byte-at-a-time feeds
// to exercise spec §8's "chunked arrival" boundary behavior).
func streamFromChunks(chunks ...[]byte) *coroutine.AsyncGenerator[[]byte] {
	return coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[[]byte]) error {
		for _, c := range chunks {
			if !yield(ctx, c) {
				return nil
			}
		}
		return nil
	})
}

func splitBytewise(s string) [][]byte {
	out := make([][]byte, len(s))
	for i := range s {
		out[i] = []byte{s[i]}
	}
	return out
}

func drainBody(t *testing.T, ctx context.Context, req *httpframe.Request) []byte {
	t.Helper()
	var out []byte
	body := req.Body()
	for {
		chunk, ok, err := body.Advance(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return out
		}
		out = append(out, chunk...)
	}
}

func TestPlainGET(t *testing.T) {
	raw := streamFromChunks([]byte("GET /x HTTP/1.1\r\nHost: a\r\n\r\n"))
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	reqs := f.Requests()
	req, ok, err := reqs.Advance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected one request")
	}
	if req.Method != "GET" || req.Path != "/x" {
		t.Fatalf("got method=%q path=%q", req.Method, req.Path)
	}
	if req.Version != (httpframe.Version{Major: 1, Minor: 1}) {
		t.Fatalf("got version %+v, want 1.1", req.Version)
	}
	if !req.KeepAlive {
		t.Fatal("HTTP/1.1 with no Connection header should default keep-alive")
	}
	if req.ContentLength != 0 {
		t.Fatalf("got content_length=%d, want 0", req.ContentLength)
	}
	body := drainBody(t, ctx, req)
	if len(body) != 0 {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestPOSTWithContentLength(t *testing.T) {
	raw := streamFromChunks([]byte("POST /y HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, ok, err := f.Requests().Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("Advance: ok=%v err=%v", ok, err)
	}
	if req.ContentLength != 5 {
		t.Fatalf("got content_length=%d, want 5", req.ContentLength)
	}
	body := drainBody(t, ctx, req)
	if string(body) != "hello" {
		t.Fatalf("got body %q, want %q", body, "hello")
	}
}

func TestPipelinedGETs(t *testing.T) {
	raw := streamFromChunks([]byte(
		"GET /a HTTP/1.1\r\nHost: x\r\n\r\n" +
			"GET /b HTTP/1.1\r\nHost: x\r\n\r\n",
	))
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	reqs := f.Requests()

	req1, ok, err := reqs.Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("first Advance: ok=%v err=%v", ok, err)
	}
	if req1.Path != "/a" {
		t.Fatalf("got path %q, want /a", req1.Path)
	}

	// The second request must not be observable before the first body ends.
	second := make(chan *httpframe.Request, 1)
	go func() {
		req2, ok, err := reqs.Advance(ctx)
		if err != nil || !ok {
			t.Error(err)
			return
		}
		second <- req2
	}()

	select {
	case <-second:
		t.Fatal("second request observed before first body generator ended")
	case <-time.After(30 * time.Millisecond):
	}

	if got := drainBody(t, ctx, req1); len(got) != 0 {
		t.Fatalf("expected empty body for /a, got %q", got)
	}

	select {
	case req2 := <-second:
		if req2.Path != "/b" {
			t.Fatalf("got path %q, want /b", req2.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("second request never observed")
	}
}

func TestChunkedByteAtATimeArrival(t *testing.T) {
	raw := streamFromChunks(splitBytewise("POST /z HTTP/1.0\r\nContent-Length: 3\r\n\r\nabc")...)
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, ok, err := f.Requests().Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("Advance: ok=%v err=%v", ok, err)
	}
	if got := drainBody(t, ctx, req); string(got) != "abc" {
		t.Fatalf("got body %q, want %q", got, "abc")
	}
}

func TestZeroLengthBodyEndsImmediately(t *testing.T) {
	raw := streamFromChunks([]byte("GET / HTTP/1.1\r\n\r\n"))
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, ok, err := f.Requests().Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("Advance: ok=%v err=%v", ok, err)
	}
	_, ok, err = req.Body().Advance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected zero-length body to yield nothing")
	}
}

func TestMidRequestCloseMarksClosed(t *testing.T) {
	raw := streamFromChunks([]byte("POST /w HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"))
	f := httpframe.NewFramerFromStream(raw, 64)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, ok, err := f.Requests().Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("Advance: ok=%v err=%v", ok, err)
	}

	body := req.Body()
	chunk, ok, err := body.Advance(ctx)
	if err != nil || !ok || string(chunk) != "abc" {
		t.Fatalf("first body Advance: chunk=%q ok=%v err=%v", chunk, ok, err)
	}
	_, ok, err = body.Advance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected body to end on transport close")
	}
	if !req.Closed {
		t.Fatal("expected req.Closed after mid-request transport close")
	}
}
