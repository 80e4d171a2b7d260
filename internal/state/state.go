/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package state builds the JSON server-state document broadcast on every
// control socket after a successful command.
package state

import "encoding/json"

// Document is the JSON shape sent to every control socket: listener count,
// library contents, and current queue.
type Document struct {
	ActiveListeners int      `json:"active_listeners"`
	SongLibrary     []string `json:"song_library"`
	SongQueue       []string `json:"song_queue"`
}

// librarySource and queueSource are the minimal read-only views this
// package needs, so it does not import the library/queue packages
// directly.
type librarySource interface {
	List() ([]string, error)
}

type queueSource interface {
	SnapshotNames() []string
}

// Build assembles a Document from a library listing followed by a queue
// snapshot. The two reads are separate: the queue snapshot is taken under
// the queue's shared lock, while the library listing reads the directory
// without a lock.
func Build(lib librarySource, q queueSource, activeListeners int) (Document, error) {
	names, err := lib.List()
	if err != nil {
		return Document{}, err
	}
	if names == nil {
		names = []string{}
	}

	queued := q.SnapshotNames()
	if queued == nil {
		queued = []string{}
	}

	return Document{
		ActiveListeners: activeListeners,
		SongLibrary:     names,
		SongQueue:       queued,
	}, nil
}

// Marshal renders d as compact JSON text, unframed, as required by the
// control protocol (back-to-back JSON documents on the same byte stream).
func (d Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}
