// File: socket/listener_unix.go
//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

func createListenSocket(ip net.IP, port int, backlog int) (uintptr, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return 0, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return 0, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	var addr unix.SockaddrInet4
	copy(addr.Addr[:], ip.To4())
	addr.Port = port
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return 0, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return 0, fmt.Errorf("listen: %w", err)
	}
	return uintptr(fd), nil
}

// acceptRaw attempts one non-blocking accept4. recoverable is true for
// EAGAIN/EWOULDBLOCK (drives the readiness wait) and for the connection
// having been reset before accept completed (skip without yielding, per
// spec §4.9's error policy); any other error is fatal.
func acceptRaw(listenFD uintptr) (fd uintptr, recoverable bool, err error) {
	cfd, _, aerr := unix.Accept4(int(listenFD), unix.SOCK_NONBLOCK)
	if aerr == nil {
		if serr := unix.SetsockoptInt(cfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); serr != nil {
			unix.Close(cfd)
			return 0, false, fmt.Errorf("setsockopt TCP_NODELAY: %w", serr)
		}
		return uintptr(cfd), false, nil
	}
	switch aerr {
	case unix.EAGAIN, unix.EWOULDBLOCK:
		return 0, true, aerr
	case unix.ECONNABORTED, unix.ECONNRESET, unix.EINTR, unix.EPROTO:
		return 0, true, aerr
	default:
		return 0, false, aerr
	}
}

func closeListenFD(fd uintptr) error {
	if err := unix.Close(int(fd)); err != nil && err != unix.EBADF {
		return wrapFatal("listener close", err)
	}
	return nil
}
