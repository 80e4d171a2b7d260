/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package registry implements the client registry: the mapping from a
// connected listener's control-channel identifier to its paired audio
// channel and peer address.
package registry

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Client is a single connected listener. Both channels belong to the same
// logical client and share a lifetime: removing a Client closes both.
type Client struct {
	ID        string
	PeerAddr  string
	ControlFD int
	AudioFD   int
}

// Registry is the keyed mapping from control-channel identifier to Client.
// Reads take a shared lock, mutations take an exclusive one.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  zerolog.Logger
}

// New creates an empty registry.
func New(logger zerolog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// Add records a newly accepted client pair.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
	r.logger.Info().Str("client_id", c.ID).Str("peer", c.PeerAddr).Msg("client registered")
}

// Remove closes both channels belonging to id and deletes the record. It is
// idempotent: removing an unknown or already-removed id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	// fd 0 never comes back from accept(2) while the process's stdin stays
	// open; treat it as "no real descriptor" so zero-valued test fixtures
	// don't close stdin.
	if c.ControlFD != 0 {
		_ = unix.Close(c.ControlFD)
	}
	if c.AudioFD != 0 {
		_ = unix.Close(c.AudioFD)
	}
	r.logger.Info().Str("client_id", id).Msg("client removed")
}

// Get returns the client for id, if registered, under a shared lock.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Count returns the number of currently registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Snapshot returns a copy of all registered clients. Callers must use this
// (rather than holding the registry lock) before performing socket sends —
// a worker must never hold the registry lock across blocking I/O.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}
