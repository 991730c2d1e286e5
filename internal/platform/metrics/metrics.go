// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes the portal's Prometheus collectors.

A single [Metrics] value is created in main and handed to each component as
its observer. It satisfies the observer interfaces of the backend client, the
session store, the route guard and the moderation workflow, so none of those
packages import Prometheus.

Collectors:

  - portal_http_requests_total / portal_http_request_duration_seconds
  - portal_backend_requests_total / portal_backend_request_duration_seconds
  - portal_session_events_total
  - portal_guard_decisions_total
  - portal_moderation_actions_total
  - portal_sessions_active (gauge, sampled from the registry)
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/alumniportal/internal/guard"
	"github.com/taibuivan/alumniportal/internal/platform/middleware"
)

const namespace = "portal"

// # Registry

// Metrics owns a private registry and the portal's collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	sessionEvents   *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	moderation      *prometheus.CounterVec
}

// New registers every collector on a fresh registry. activeSessions is
// sampled on each scrape; it may be nil.
func New(activeSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Portal HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Portal HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls to the alumni API by route template, method and status (0 for transport errors).",
		}, []string{"route", "method", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of calls to the alumni API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Visitor session lifecycle events.",
		}, []string{"event"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions by rule.",
		}, []string{"rule", "decision"}),
		moderation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Admin moderation actions by outcome.",
		}, []string{"action", "outcome"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.backendRequests,
		m.backendDuration,
		m.sessionEvents,
		m.guardDecisions,
		m.moderation,
	)

	if activeSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Visitor sessions currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// # Observers

// ObserveBackend records one alumni API call.
func (m *Metrics) ObserveBackend(method, route string, status int, elapsed time.Duration) {
	m.backendRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.backendDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveSession records a session lifecycle event.
func (m *Metrics) ObserveSession(event string) {
	m.sessionEvents.WithLabelValues(event).Inc()
}

// ObserveGuard records a route guard decision.
func (m *Metrics) ObserveGuard(rule string, decision guard.Decision) {
	m.guardDecisions.WithLabelValues(rule, decision.String()).Inc()
}

// ObserveModeration records a moderation action outcome.
func (m *Metrics) ObserveModeration(action, outcome string) {
	m.moderation.WithLabelValues(action, outcome).Inc()
}

// # HTTP Instrumentation

// Instrument counts requests by the matched chi route pattern. Unmatched
// paths are folded into a single label to keep cardinality bounded.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		started := time.Now()
		recorder := &middleware.StatusRecorder{ResponseWriter: writer, Status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.httpRequests.WithLabelValues(route, request.Method, strconv.Itoa(recorder.Status)).Inc()
		m.httpDuration.WithLabelValues(route, request.Method).Observe(time.Since(started).Seconds())
	})
}
