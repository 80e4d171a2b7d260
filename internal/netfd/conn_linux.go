/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package netfd

import (
	"io"

	"golang.org/x/sys/unix"
)

// Conn adapts a raw non-blocking socket descriptor to io.ReadWriteCloser.
// Because the descriptor is non-blocking, a read that finds no data
// currently queued (EAGAIN/EWOULDBLOCK) is surfaced as io.EOF rather than
// retried: per the control protocol's error model, any short read on the
// control channel — including one caused by a command arriving split
// across readiness events — is treated the same as a peer disconnect.
type Conn struct {
	Fd int
}

// Read implements io.Reader.
func (c Conn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.Fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, io.EOF
		}
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer, looping until all of p is written or an
// error (including EAGAIN, surfaced as-is) interrupts it. Used for control
// broadcasts, which are small enough that a single non-blocking write
// essentially always completes.
func (c Conn) Write(p []byte) (int, error) {
	var written int
	for written < len(p) {
		n, err := unix.Write(c.Fd, p[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// WriteNonBlocking performs a single best-effort write attempt, used by
// the audio streamer: a short or failed send is logged by the caller and
// dropped for this tick rather than retried, so one slow listener cannot
// stall the fan-out loop.
func (c Conn) WriteNonBlocking(p []byte) (int, error) {
	return unix.Write(c.Fd, p)
}

// Close closes the underlying descriptor.
func (c Conn) Close() error {
	return unix.Close(c.Fd)
}
