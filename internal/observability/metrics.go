// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters of the geolocation adapter.
type Metrics struct {
	Requests  *prometheus.CounterVec // labels: path={cache,fresh}
	Results   *prometheus.CounterVec // labels: outcome={success,error}
	Events    *prometheus.CounterVec // labels: event
	Observing prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "requests_total",
			Help:      "Current-location requests by how they were answered.",
		}, []string{"path"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "results_total",
			Help:      "Callbacks delivered to callers by outcome.",
		}, []string{"outcome"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geolocation",
			Name:      "events_total",
			Help:      "Events emitted to the host application.",
		}, []string{"event"}),
		Observing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geolocation",
			Name:      "observing_subscriptions",
			Help:      "Location-change subscriptions held by the adapter.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.Requests, m.Results, m.Events, m.Observing)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
