/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library implements the song library: a directory of audio files
// that clients can list and upload into.
package library

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Mirror is an optional best-effort secondary copy of an uploaded file.
// A Store calls it after every successful local write; mirror failures
// are logged and never surface to the protocol handler.
type Mirror interface {
	Store(name string, content []byte)
}

// Store is a directory of audio files on local disk. The core treats file
// contents as opaque bytes; it never parses or validates them.
type Store struct {
	root   string
	logger zerolog.Logger
	mirror Mirror
}

// New creates a Store rooted at dir. The directory is created if absent.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library root: %w", err)
	}
	return &Store{
		root:   dir,
		logger: logger.With().Str("component", "library").Logger(),
	}, nil
}

// SetMirror attaches an optional secondary storage backend. Nil disables it.
func (s *Store) SetMirror(m Mirror) {
	s.mirror = m
}

// Root returns the library root directory.
func (s *Store) Root() string {
	return s.root
}

// List returns each immediate directory entry's name relative to the root.
// Order is filesystem-defined; callers must not depend on it.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Write creates or replaces root/name with the exact bytes given. name is
// used verbatim and is not sanitized — see DESIGN.md's Open Question on
// traversal.
func (s *Store) Write(name string, content []byte) error {
	path := filepath.Join(s.root, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %q for write: %w", name, err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}

	if s.mirror != nil {
		go s.mirror.Store(name, content)
	}

	return nil
}

// Path resolves a library-relative name to its full path on disk.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}
