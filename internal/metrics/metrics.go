/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package metrics exposes the broadcaster's Prometheus counters and
// gauges, read-only observability that never touches the core protocol
// or its locks beyond what the state-broadcast snapshot functions
// already expose.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every counter/gauge the broadcaster records.
type Metrics struct {
	ClientsConnected   prometheus.Gauge
	CommandsHandled    *prometheus.CounterVec
	ClientDisconnects  prometheus.Counter
	ChunksBroadcast    prometheus.Counter
	AudioSendFailures  prometheus.Counter
	StateBroadcastSent prometheus.Counter
}

// New registers and returns the metric set against the default registry.
func New() *Metrics {
	return &Metrics{
		ClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aethercast_clients_connected",
			Help: "Number of currently registered listeners.",
		}),
		CommandsHandled: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aethercast_commands_handled_total",
			Help: "Control-channel commands handled, by command type.",
		}, []string{"command"}),
		ClientDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aethercast_client_disconnects_total",
			Help: "Clients removed after a control-channel EOF or short read.",
		}),
		ChunksBroadcast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aethercast_chunks_broadcast_total",
			Help: "Audio chunks pulled from the queue and fanned out.",
		}),
		AudioSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aethercast_audio_send_failures_total",
			Help: "Non-blocking audio sends that failed or were short.",
		}),
		StateBroadcastSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aethercast_state_broadcasts_total",
			Help: "State documents sent across all control sockets.",
		}),
	}
}

// Handler returns the Prometheus text-exposition HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
