// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olegiv/medlem-go/internal/route"
)

// Metrics holds the Prometheus collectors for request and gate activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	denials  *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medlem",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route name, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medlem",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medlem",
			Name:      "gate_denials_total",
			Help:      "Requests refused by the CSRF, authentication or authorization gate.",
		}, []string{"gate"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.denials,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Denied counts one refusal by gate.
func (m *Metrics) Denied(gate string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(gate).Inc()
}

// Middleware records request count and latency. It must run after the route
// resolver so the route name label is known; unmatched requests are
// labelled "404" to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		name := route.NotFound
		if match, ok := route.FromContext(r.Context()); ok {
			name = match.Name()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(name, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
