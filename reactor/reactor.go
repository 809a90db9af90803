// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor defines the cross-platform contract every OS-specific poller
// implements. Interest registration is one-shot: once an event fires for a
// descriptor, the reactor drops the registration before invoking the
// callback, matching the suspend/retry loop used by socket.Socket and
// tlsbridge.Bridge (register -> wait -> attempt syscall -> re-register on
// EAGAIN).

package reactor

import (
	"context"
	"errors"
)

// FDEventType is a bitmask of readiness conditions a caller can subscribe to.
type FDEventType int

const (
	EventRead FDEventType = 1 << iota
	EventWrite
	EventError
)

// FDCallback is invoked by the reactor loop when a registered descriptor
// becomes ready. It runs on the reactor's own goroutine; implementations
// must not block. The socket package's callbacks (Socket.awaitReady,
// Listener.awaitAcceptReady) only send the fired events on a buffered channel.
type FDCallback func(fd uintptr, events FDEventType)

// ErrClosed is returned by operations attempted after the reactor has closed.
var ErrClosed = errors.New("reactor: closed")

// ErrUnsupportedPlatform is returned by New on platforms without a reactor backend.
var ErrUnsupportedPlatform = errors.New("reactor: platform not supported")

// Reactor is the single-processor event loop contract from spec §4.1.
type Reactor interface {
	// Register subscribes fd for a one-shot notification on events. The
	// registration is automatically dropped by the reactor before cb is
	// invoked; callers re-register on every suspend point.
	Register(fd uintptr, events FDEventType, cb FDCallback) error

	// Unregister cancels a pending registration for fd, if any. Used when a
	// socket closes while a suspend is outstanding (spec §5 Cancellation).
	Unregister(fd uintptr) error

	// Run blocks processing readiness events until ctx is cancelled or Close
	// is called, whichever happens first. It returns nil on clean shutdown.
	Run(ctx context.Context) error

	// Close releases OS resources. Safe to call once; Run returns shortly after.
	Close() error
}
