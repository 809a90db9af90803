package coroutine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-async/coroutine"
)

func TestTaskAwaitReturnsValue(t *testing.T) {
	task := coroutine.NewTask(func(ctx context.Context) (int, error) {
		return 42, nil
	})
	v, err := task.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestTaskAwaitPropagatesError(t *testing.T) {
	want := errors.New("boom")
	task := coroutine.NewTask(func(ctx context.Context) (int, error) {
		return 0, want
	})
	_, err := task.Await(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestTaskSecondAwaitDoesNotBlock(t *testing.T) {
	task := coroutine.NewTask(func(ctx context.Context) (int, error) {
		return 7, nil
	})
	ctx := context.Background()
	v1, _ := task.Await(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { recover() }()
		task.Await(ctx)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Await did not return/panic in time")
	}
	if v1 != 7 {
		t.Fatalf("got %d, want 7", v1)
	}
}

func TestTaskAwaitRespectsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	task := coroutine.NewTask(func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := task.Await(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	close(release)
}

func TestTaskPanicBecomesBrokenPromise(t *testing.T) {
	task := coroutine.NewTask(func(ctx context.Context) (int, error) {
		panic("boom")
	})
	_, err := task.Await(context.Background())
	if !errors.Is(err, coroutine.ErrBrokenPromise) {
		t.Fatalf("got %v, want ErrBrokenPromise", err)
	}
}
