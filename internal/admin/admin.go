/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package admin exposes the read-only HTTP surface: liveness, Prometheus
// metrics, and a JSON status snapshot. It never touches the control/audio
// TCP protocol directly — it only reads the same library/queue/registry
// snapshot functions the core state broadcast already uses.
package admin

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/aethercast/internal/geo"
	"github.com/friendsincode/aethercast/internal/library"
	"github.com/friendsincode/aethercast/internal/logbuffer"
	"github.com/friendsincode/aethercast/internal/metrics"
	"github.com/friendsincode/aethercast/internal/queue"
	"github.com/friendsincode/aethercast/internal/registry"
	"github.com/friendsincode/aethercast/internal/state"
)

// Server is the admin HTTP surface.
type Server struct {
	router chi.Router
	logger zerolog.Logger
	ready  atomic.Bool
	geo    *geo.Lookup
	logbuf *logbuffer.Buffer
}

// Deps bundles the read-only collaborators the admin routes need.
type Deps struct {
	Library  *library.Store
	Queue    *queue.Queue
	Registry *registry.Registry
	GeoIP    *geo.Lookup       // nil disables geo enrichment
	LogBuf   *logbuffer.Buffer // nil disables /logs
}

// New builds the admin router. Call MarkReady once the multiplexor and
// streamer goroutines are actually running, so /healthz reflects reality.
func New(deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger.With().Str("component", "admin").Logger(),
		geo:    deps.GeoIP,
		logbuf: deps.LogBuf,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/status", s.handleStatus(deps))
	if deps.LogBuf != nil {
		r.Get("/logs", s.handleLogs)
	}

	s.router = r
	return s
}

// MarkReady flips /healthz to report 200 OK.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// Handler returns the http.Handler to mount behind an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// statusDocument extends the broadcast state document with an optional
// per-client geo annotation, read under the same snapshot the state
// broadcast already produces.
type statusDocument struct {
	state.Document
	ListenerGeo []string `json:"listener_geo,omitempty"`
}

func (s *Server) handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients := deps.Registry.Snapshot()

		doc, err := state.Build(deps.Library, deps.Queue, len(clients))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out := statusDocument{Document: doc}
		if s.geo != nil {
			countries := make([]string, 0, len(clients))
			for _, c := range clients {
				countries = append(countries, s.geo.Country(c.PeerAddr))
			}
			out.ListenerGeo = countries
		}

		payload, err := json.Marshal(out)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries := s.logbuf.Query(logbuffer.QueryParams{
		Level:      q.Get("level"),
		Component:  q.Get("component"),
		Search:     q.Get("search"),
		Descending: q.Get("order") == "desc",
	})

	payload, err := json.Marshal(entries)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}
