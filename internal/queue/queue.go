/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package queue implements the shared song queue: the ordered sequence of
// enqueued library entries that the broadcast streamer drains one fixed-size
// chunk at a time.
package queue

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// ChunkSize is the fixed size, in bytes, of every broadcast audio chunk.
const ChunkSize = 4096

// song is a single queued library entry. length is captured once at enqueue
// time and never re-stat'd; cursor tracks bytes already streamed.
type song struct {
	path   string
	length int64
	cursor int64
}

// Queue holds the ordered collection of queued songs. Enqueue pushes to the
// same end the streamer drains from (see DESIGN.md for the Open Question
// this reproduces deliberately): the most recently enqueued song plays next.
type Queue struct {
	mu          sync.RWMutex
	songs       []*song
	libraryRoot string
	logger      zerolog.Logger
}

// New creates an empty queue whose display names are derived relative to
// libraryRoot.
func New(libraryRoot string, logger zerolog.Logger) *Queue {
	return &Queue{
		libraryRoot: libraryRoot,
		logger:      logger.With().Str("component", "queue").Logger(),
	}
}

// Enqueue stats path, captures its length, and inserts it at the draining
// end (the front of the internal slice).
func (q *Queue) Enqueue(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("enqueue %q: %w", path, err)
	}

	s := &song{path: path, length: info.Size()}

	q.mu.Lock()
	q.songs = append([]*song{s}, q.songs...)
	depth := len(q.songs)
	q.mu.Unlock()

	q.logger.Debug().Str("path", path).Int64("length", s.length).Int("depth", depth).Msg("enqueued")
	return nil
}

// SnapshotNames returns the display names of queued songs in drain order
// under a shared lock.
func (q *Queue) SnapshotNames() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	names := make([]string, len(q.songs))
	for i, s := range q.songs {
		names[i] = q.displayName(s.path)
	}
	return names
}

// IsEmpty reports whether the queue currently has no songs, under a shared
// lock.
func (q *Queue) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.songs) == 0
}

func (q *Queue) displayName(path string) string {
	rel, err := filepath.Rel(q.libraryRoot, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// PullChunk produces the next ChunkSize bytes of audio to broadcast. It
// opens the underlying file(s) anew on every call — no long-lived file
// handles are kept between pulls. Returns nil only when the queue is empty.
//
// When the current song runs out mid-chunk, the tail is filled from the
// start of the next queued song (the splice). If no successor exists, the
// tail is zero-filled so every returned chunk is exactly ChunkSize bytes.
func (q *Queue) PullChunk() ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	chunk := make([]byte, ChunkSize)
	pos := 0

	for pos < ChunkSize {
		if len(q.songs) == 0 {
			// Nothing left to splice in; the remainder stays zero-filled.
			break
		}

		front := q.songs[0]
		remaining := front.length - front.cursor
		if remaining <= 0 {
			q.songs = q.songs[1:]
			continue
		}

		want := int64(ChunkSize - pos)
		n := remaining
		if n > want {
			n = want
		}

		read, err := readAt(front.path, front.cursor, n)
		if err != nil {
			q.logger.Warn().Err(err).Str("path", front.path).Msg("failed to read queued song, skipping")
			q.songs = q.songs[1:]
			continue
		}

		copy(chunk[pos:], read)
		pos += len(read)
		front.cursor += int64(len(read))

		if front.cursor >= front.length {
			q.songs = q.songs[1:]
		}

		if len(read) < int(n) {
			// Short read from disk: treat the file as exhausted at this
			// point rather than looping forever.
			break
		}
	}

	if pos == 0 && len(q.songs) == 0 {
		return nil, nil
	}
	return chunk, nil
}

func readAt(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %q: %w", path, err)
	}

	buf := make([]byte, length)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return buf[:n], nil
}
