/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package netfd wraps the raw socket and epoll syscalls the event
// multiplexor is built on: listening sockets with SO_REUSEADDR/SO_REUSEPORT,
// non-blocking accept, and an edge-triggered one-shot readiness set.
package netfd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Listen creates a non-blocking TCP listening socket bound to 0.0.0.0:port
// with SO_REUSEADDR and SO_REUSEPORT set, as the accept protocol requires
// for both the control and audio listeners.
func Listen(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("setsockopt SO_REUSEPORT: %w", err)
	}

	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("listen: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("set nonblocking: %w", err)
	}

	return fd, nil
}

// backlog is the pending-connection queue length passed to listen(2).
const backlog = 128

// Accept accepts one connection from a non-blocking listening socket,
// returning the new connection's fd (also set non-blocking) and the peer's
// address in "ip:port" form. unix.EAGAIN is returned unwrapped so callers
// can distinguish "no pending connection" from a real accept failure.
func Accept(listenFd int) (int, string, error) {
	connFd, sa, err := unix.Accept(listenFd)
	if err != nil {
		return -1, "", err
	}
	if err := unix.SetNonblock(connFd, true); err != nil {
		unix.Close(connFd)
		return -1, "", fmt.Errorf("set nonblocking: %w", err)
	}
	return connFd, peerString(sa), nil
}

// Port returns the local port a listening socket was bound to, useful when
// Listen was called with port 0 to let the kernel choose one.
func Port(fd int) (int, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, fmt.Errorf("getsockname: %w", err)
	}
	addr, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, fmt.Errorf("unexpected sockaddr type %T", sa)
	}
	return addr.Port, nil
}

func peerString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	default:
		return "unknown"
	}
}
