// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadenza_api_requests_total",
		Help: "API requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scadenza_api_request_duration_seconds",
		Help:    "API request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scadenza_api_active_requests",
		Help: "In-flight API requests.",
	})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scadenza_websocket_clients",
		Help: "Currently connected websocket clients.",
	})

	broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scadenza_broadcast_events_total",
		Help: "Broadcast events fanned out, by event kind.",
	}, []string{"kind"})

	broadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scadenza_broadcast_events_dropped_total",
		Help: "Broadcast events dropped because the channel was full.",
	})
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	apiRequests.WithLabelValues(method, path, status).Inc()
	apiDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		activeRequests.Inc()
	} else {
		activeRequests.Dec()
	}
}

// SetWSClients sets the connected websocket client gauge.
func SetWSClients(n int) {
	wsClients.Set(float64(n))
}

// RecordBroadcast counts one fanned-out event.
func RecordBroadcast(kind string) {
	broadcasts.WithLabelValues(kind).Inc()
}

// RecordBroadcastDropped counts one dropped event.
func RecordBroadcastDropped() {
	broadcastsDropped.Inc()
}
