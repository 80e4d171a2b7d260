/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server implements the event multiplexor: the acceptor/dispatcher
// loop, the accept-pairing protocol, and the per-command handler contract
// described for the control channel. It owns the two listening sockets and
// the single epoll-based readiness set shared by every accepted control
// socket.
package server

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/friendsincode/aethercast/internal/library"
	"github.com/friendsincode/aethercast/internal/metrics"
	"github.com/friendsincode/aethercast/internal/netfd"
	"github.com/friendsincode/aethercast/internal/protocol"
	"github.com/friendsincode/aethercast/internal/queue"
	"github.com/friendsincode/aethercast/internal/registry"
	"github.com/friendsincode/aethercast/internal/state"
	"github.com/friendsincode/aethercast/internal/workerpool"
)

// audioAcceptRetries and audioAcceptBackoff bound how long the acceptor
// waits for the paired audio connection to arrive after a control
// connection, since both listeners are non-blocking.
const (
	audioAcceptRetries = 200
	audioAcceptBackoff = 5 * time.Millisecond
)

// Server owns the listening sockets, the readiness set, and references to
// every collaborator a worker needs to handle one command.
type Server struct {
	controlPort int
	audioPort   int

	controlFD int
	audioFD   int
	epoll     *netfd.Epoll

	library  *library.Store
	queue    *queue.Queue
	registry *registry.Registry
	pool     *workerpool.Pool
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New builds a Server around already-constructed collaborators. It does
// not bind any sockets yet; call Run to do that. m may be nil, in which
// case metric recording is skipped.
func New(controlPort, audioPort int, lib *library.Store, q *queue.Queue, reg *registry.Registry, pool *workerpool.Pool, m *metrics.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		controlPort: controlPort,
		audioPort:   audioPort,
		library:     lib,
		queue:       q,
		registry:    reg,
		pool:        pool,
		metrics:     m,
		logger:      logger.With().Str("component", "server").Logger(),
	}
}

// Run binds both listening sockets, creates the epoll set, and runs the
// acceptor/dispatcher loop until stop is closed. It is a fatal *setup
// error* (per the error taxonomy) if any of socket creation, bind, listen,
// or epoll creation fails.
func (s *Server) Run(stop <-chan struct{}) error {
	controlFD, err := netfd.Listen(s.controlPort)
	if err != nil {
		return fmt.Errorf("control listener: %w", err)
	}
	s.controlFD = controlFD
	defer unix.Close(s.controlFD)

	audioFD, err := netfd.Listen(s.audioPort)
	if err != nil {
		return fmt.Errorf("audio listener: %w", err)
	}
	s.audioFD = audioFD
	defer unix.Close(s.audioFD)

	ep, err := netfd.NewEpoll()
	if err != nil {
		return fmt.Errorf("epoll: %w", err)
	}
	s.epoll = ep
	defer ep.Close()

	if err := ep.AddListener(s.controlFD); err != nil {
		return fmt.Errorf("register control listener: %w", err)
	}

	s.logger.Info().Int("control_port", s.controlPort).Int("audio_port", s.audioPort).Msg("event multiplexor listening")

	events := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		ready, err := s.epoll.Wait(events)
		if err != nil {
			return fmt.Errorf("epoll wait: %w", err)
		}

		for _, ev := range ready {
			fd := int(ev.Fd)
			if fd == s.controlFD {
				s.acceptLoop()
				continue
			}
			s.pool.Submit(s.commandTask(fd))
		}
	}
}

// acceptLoop drains every pending connection on the control listener, so
// a single readiness notification that covers more than one waiting peer
// accepts all of them.
func (s *Server) acceptLoop() {
	for {
		controlFD, peer, err := netfd.Accept(s.controlFD)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			s.logger.Warn().Err(err).Msg("accept error on control listener")
			return
		}

		audioFD, err := s.acceptAudioPeer()
		if err != nil {
			s.logger.Warn().Err(err).Str("peer", peer).Msg("paired audio accept failed; dropping control connection")
			unix.Close(controlFD)
			continue
		}

		if err := s.epoll.AddClient(controlFD); err != nil {
			s.logger.Warn().Err(err).Str("peer", peer).Msg("failed to register client control socket")
			unix.Close(controlFD)
			unix.Close(audioFD)
			continue
		}

		client := &registry.Client{
			ID:        uuid.NewString(),
			PeerAddr:  peer,
			ControlFD: controlFD,
			AudioFD:   audioFD,
		}
		s.registry.Add(client)
		if s.metrics != nil {
			s.metrics.ClientsConnected.Set(float64(s.registry.Count()))
		}
		s.broadcastState()
	}
}

// acceptAudioPeer accepts the paired audio connection, retrying briefly
// since the audio listener is non-blocking and the peer's two connection
// attempts are not perfectly simultaneous.
func (s *Server) acceptAudioPeer() (int, error) {
	for i := 0; i < audioAcceptRetries; i++ {
		fd, _, err := netfd.Accept(s.audioFD)
		if err == nil {
			return fd, nil
		}
		if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
			return -1, err
		}
		time.Sleep(audioAcceptBackoff)
	}
	return -1, errors.New("timed out waiting for paired audio connection")
}

// commandTask builds the worker-pool task that implements the per-command
// handler contract for one readiness event on a client's control socket.
func (s *Server) commandTask(fd int) workerpool.Task {
	return func() {
		conn := netfd.Conn{Fd: fd}
		cmd, err := protocol.ReadCommand(conn)
		if err != nil {
			s.disconnect(fd)
			return
		}

		switch c := cmd.(type) {
		case *protocol.Upload:
			if err := s.library.Write(c.Name, c.Body); err != nil {
				s.logger.Error().Err(err).Str("name", c.Name).Msg("library write failed")
			}
			s.recordCommand("upload")
		case *protocol.Enqueue:
			if err := s.queue.Enqueue(s.library.Path(c.Name)); err != nil {
				s.logger.Error().Err(err).Str("name", c.Name).Msg("enqueue failed")
			}
			s.recordCommand("enqueue")
		default:
			s.logger.Warn().Msg("unrecognized command reached the worker")
		}

		if err := s.epoll.Rearm(fd); err != nil {
			s.logger.Error().Err(err).Int("fd", fd).Msg("failed to re-arm client descriptor")
		}
		s.broadcastState()
	}
}

// disconnect implements the control channel's short-read/EOF handling: the
// client (both descriptors) is removed, de-registered, and a state
// broadcast announces the updated listener count.
func (s *Server) disconnect(fd int) {
	_ = s.epoll.Remove(fd)

	var id string
	for _, c := range s.registry.Snapshot() {
		if c.ControlFD == fd {
			id = c.ID
			break
		}
	}
	if id == "" {
		return
	}
	s.registry.Remove(id)
	if s.metrics != nil {
		s.metrics.ClientDisconnects.Inc()
		s.metrics.ClientsConnected.Set(float64(s.registry.Count()))
	}
	s.broadcastState()
}

func (s *Server) recordCommand(kind string) {
	if s.metrics != nil {
		s.metrics.CommandsHandled.WithLabelValues(kind).Inc()
	}
}

// broadcastState sends the current server-state document to every
// registered control socket. Best-effort: a send failure is logged, never
// propagated, and never removes the client — only the control channel's
// own EOF path does that.
func (s *Server) broadcastState() {
	clients := s.registry.Snapshot()

	doc, err := state.Build(s.library, s.queue, len(clients))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to build state document")
		return
	}
	payload, err := doc.Marshal()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal state document")
		return
	}

	for _, c := range clients {
		conn := netfd.Conn{Fd: c.ControlFD}
		if _, err := conn.Write(payload); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Debug().Err(err).Str("client_id", c.ID).Msg("state broadcast send failed")
		}
	}
	if s.metrics != nil {
		s.metrics.StateBroadcastSent.Inc()
	}
}
