// File: socket/listener_windows.go
//go:build windows

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"
)

func createListenSocket(ip net.IP, port int, backlog int) (uintptr, error) {
	sock, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return 0, fmt.Errorf("socket create: %w", err)
	}
	if err := windows.SetsockoptInt(sock, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		windows.Closesocket(sock)
		return 0, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	addr := windows.SockaddrInet4{Port: port}
	copy(addr.Addr[:], ip.To4())
	if err := windows.Bind(sock, &addr); err != nil {
		windows.Closesocket(sock)
		return 0, fmt.Errorf("bind: %w", err)
	}
	if err := windows.Listen(sock, backlog); err != nil {
		windows.Closesocket(sock)
		return 0, fmt.Errorf("listen: %w", err)
	}
	return uintptr(sock), nil
}

// acceptRaw mirrors the Unix accept4 path without the SOCK_NONBLOCK accept
// flag (Windows has no accept4 equivalent): the accepted handle is switched
// to non-blocking mode explicitly after accept succeeds.
func acceptRaw(listenFD uintptr) (fd uintptr, recoverable bool, err error) {
	h, _, aerr := windows.Accept(windows.Handle(listenFD))
	if aerr == nil {
		var mode uint32 = 1
		if ierr := windows.Ioctlsocket(h, windows.FIONBIO, &mode); ierr != nil {
			windows.Closesocket(h)
			return 0, false, fmt.Errorf("set non-blocking: %w", ierr)
		}
		if serr := windows.SetsockoptInt(h, windows.IPPROTO_TCP, windows.TCP_NODELAY, 1); serr != nil {
			windows.Closesocket(h)
			return 0, false, fmt.Errorf("setsockopt TCP_NODELAY: %w", serr)
		}
		return uintptr(h), false, nil
	}
	switch aerr {
	case windows.WSAEWOULDBLOCK:
		return 0, true, aerr
	case windows.WSAECONNRESET:
		return 0, true, aerr
	default:
		return 0, false, aerr
	}
}

func closeListenFD(fd uintptr) error {
	if err := windows.Closesocket(windows.Handle(fd)); err != nil {
		return wrapFatal("listener close", err)
	}
	return nil
}
