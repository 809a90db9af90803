package coroutine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-async/coroutine"
)

func TestAsyncGeneratorYieldsValuesInOrder(t *testing.T) {
	g := coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[int]) error {
		for i := 0; i < 3; i++ {
			if !yield(ctx, i) {
				return nil
			}
		}
		return nil
	})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, ok, err := g.Advance(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != i {
			t.Fatalf("Advance %d: got (%d,%v), want (%d,true)", i, v, ok, i)
		}
	}
	_, ok, err := g.Advance(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected exhaustion after 3 values")
	}
}

func TestAsyncGeneratorPropagatesProducerError(t *testing.T) {
	want := errors.New("producer failed")
	g := coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[int]) error {
		if !yield(ctx, 1) {
			return nil
		}
		return want
	})
	ctx := context.Background()
	_, ok, err := g.Advance(ctx)
	if err != nil || !ok {
		t.Fatalf("first Advance: got ok=%v err=%v", ok, err)
	}
	_, ok, err = g.Advance(ctx)
	if ok {
		t.Fatal("expected no value on the failing Advance")
	}
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestAsyncGeneratorCancelStopsProducer(t *testing.T) {
	started := make(chan struct{})
	g := coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[int]) error {
		close(started)
		for i := 0; ; i++ {
			if !yield(ctx, i) {
				return nil
			}
		}
	})
	ctx := context.Background()
	v, ok, err := g.Advance(ctx)
	if err != nil || !ok || v != 0 {
		t.Fatalf("first Advance: got (%d,%v,%v)", v, ok, err)
	}
	g.Cancel()
	_, ok, err = g.Advance(ctx)
	if ok {
		t.Fatal("expected no value after Cancel")
	}
	if err != nil {
		t.Fatalf("cancellation should not surface as an error: %v", err)
	}
	if g.State() != coroutine.StateCancelled {
		t.Fatalf("got state %v, want StateCancelled", g.State())
	}
}

func TestAsyncGeneratorCancelIsIdempotent(t *testing.T) {
	g := coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[int]) error {
		return nil
	})
	g.Cancel()
	g.Cancel() // must not panic or deadlock
}

func TestAsyncGeneratorAdvanceRespectsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	g := coroutine.NewAsyncGenerator(func(ctx context.Context, yield coroutine.Yield[int]) error {
		<-block
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, _, err := g.Advance(ctx)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
	close(block)
}
