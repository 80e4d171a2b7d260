/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package netfd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Epoll is an edge-triggered readiness set. Client descriptors are
// registered one-shot: after firing, a descriptor is dormant until the
// owner explicitly re-arms it, which is the invariant that serializes
// command handling per client.
type Epoll struct {
	fd int
}

// NewEpoll creates a new epoll instance.
func NewEpoll() (*Epoll, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &Epoll{fd: fd}, nil
}

// AddListener registers a listening socket for level-triggered readiness;
// the listen socket is re-armed implicitly by epoll on every wait since it
// is never one-shot — it only ever transitions accept() loops, never
// participates in the per-client one-shot discipline.
func (e *Epoll) AddListener(fd int) error {
	return e.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN)
}

// AddClient registers a client control descriptor edge-triggered, one-shot.
func (e *Epoll) AddClient(fd int) error {
	return e.ctl(unix.EPOLL_CTL_ADD, fd, unix.EPOLLIN|unix.EPOLLET|unix.EPOLLONESHOT)
}

// Rearm re-registers a one-shot client descriptor for the next readiness
// event. Must be called after a worker finishes handling a command.
func (e *Epoll) Rearm(fd int) error {
	return e.ctl(unix.EPOLL_CTL_MOD, fd, unix.EPOLLIN|unix.EPOLLET|unix.EPOLLONESHOT)
}

// Remove de-registers fd. Safe to call even if fd was never fully armed.
func (e *Epoll) Remove(fd int) error {
	err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err != nil && err != unix.ENOENT {
		return fmt.Errorf("epoll_ctl(del): %w", err)
	}
	return nil
}

func (e *Epoll) ctl(op int, fd int, events uint32) error {
	event := unix.EpollEvent{Fd: int32(fd), Events: events}
	if err := unix.EpollCtl(e.fd, op, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl: %w", err)
	}
	return nil
}

// Wait blocks, with no timeout, until at least one descriptor is ready (or
// an error event fires on it) and returns the set of ready fds. A wait
// interrupted by a signal (EINTR) returns an empty set and no error.
func (e *Epoll) Wait(events []unix.EpollEvent) ([]unix.EpollEvent, error) {
	n, err := unix.EpollWait(e.fd, events, -1)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}
	return events[:n], nil
}

// Close releases the epoll instance's descriptor.
func (e *Epoll) Close() error {
	return unix.Close(e.fd)
}
