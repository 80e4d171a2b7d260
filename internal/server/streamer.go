/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/aethercast/internal/metrics"
	"github.com/friendsincode/aethercast/internal/netfd"
	"github.com/friendsincode/aethercast/internal/queue"
	"github.com/friendsincode/aethercast/internal/registry"
)

// idlePollInterval is how long the streamer yields for when the queue is
// empty. Busy-polling is acceptable per the broadcast streamer's design;
// tests must not depend on this exact cadence.
const idlePollInterval = 20 * time.Millisecond

// Streamer is the dedicated fan-out loop: it is the sole writer of
// audio-channel bytes, pulling one chunk at a time from the Song Queue and
// sending it to every registered client's audio socket.
type Streamer struct {
	queue    *queue.Queue
	registry *registry.Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewStreamer builds a Streamer over q and reg. m may be nil to disable
// metric recording.
func NewStreamer(q *queue.Queue, reg *registry.Registry, m *metrics.Metrics, logger zerolog.Logger) *Streamer {
	return &Streamer{
		queue:    q,
		registry: reg,
		metrics:  m,
		logger:   logger.With().Str("component", "streamer").Logger(),
	}
}

// Run pulls and fans out chunks until stop is closed.
func (s *Streamer) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		if s.queue.IsEmpty() {
			time.Sleep(idlePollInterval)
			continue
		}

		chunk, err := s.queue.PullChunk()
		if err != nil {
			s.logger.Warn().Err(err).Msg("queue head unreadable, skipping tick")
			continue
		}
		if chunk == nil {
			// The head was exhausted with nothing behind it; retry next tick.
			continue
		}

		s.broadcastChunk(chunk)
		if s.metrics != nil {
			s.metrics.ChunksBroadcast.Inc()
		}
	}
}

// broadcastChunk sends chunk to every client's audio socket using a
// non-blocking send. A slow or failed send is logged; the listener is not
// removed here — removal happens only via the control channel's EOF path.
func (s *Streamer) broadcastChunk(chunk []byte) {
	for _, c := range s.registry.Snapshot() {
		conn := netfd.Conn{Fd: c.AudioFD}
		if _, err := conn.WriteNonBlocking(chunk); err != nil {
			s.logger.Debug().Err(err).Str("client_id", c.ID).Msg("audio send failed")
			if s.metrics != nil {
				s.metrics.AudioSendFailures.Inc()
			}
		}
	}
}
