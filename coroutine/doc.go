// File: coroutine/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package coroutine implements the core async primitives from spec §3/§4.2-4.4:
// Task, Generator, AsyncGenerator and SingleConsumerEvent. Go has no
// language-level coroutine; every "suspension point" here is a goroutine
// parked on a channel operation, woken by exactly the same event that would
// have resumed a coroutine frame in the original design (see SPEC_FULL.md §0).
package coroutine
