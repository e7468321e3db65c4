// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus collectors exported on /metrics.

Collectors are registered on an explicit [prometheus.Registry] rather than the
global default, so tests can build an isolated [Metrics] per case.
*/
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dossier"

// Label values for [Metrics.QueryServed].
const (
	QueryAnswered = "answered"
	QueryEmpty    = "empty"
	QueryDegraded = "degraded"
)

// Metrics groups every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	authRejections  *prometheus.CounterVec
	indexRebuilds   *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	queries         *prometheus.CounterVec
	uploadedBytes   prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_rejections_total",
			Help:      "Bearer tokens rejected by the guard, by internal reason.",
		}, []string{"reason"}),
		indexRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_rebuilds_total",
			Help:      "Tenant index rebuilds, by result.",
		}, []string{"result"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_rebuild_duration_seconds",
			Help:      "Wall time of tenant index rebuilds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries served, by outcome.",
		}, []string{"outcome"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes accepted by the upload endpoint.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.authRejections,
		m.indexRebuilds,
		m.rebuildDuration,
		m.queries,
		m.uploadedBytes,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AuthRejected counts a rejected token. A nil receiver is a no-op.
func (m *Metrics) AuthRejected(reason string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(reason).Inc()
}

// IndexRebuilt records the outcome and duration of a rebuild.
func (m *Metrics) IndexRebuilt(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.indexRebuilds.WithLabelValues(result).Inc()
	m.rebuildDuration.Observe(elapsed.Seconds())
}

// QueryServed counts a query by outcome.
func (m *Metrics) QueryServed(outcome string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
}

// Uploaded counts accepted upload bytes.
func (m *Metrics) Uploaded(size int64) {
	if m == nil {
		return
	}
	m.uploadedBytes.Add(float64(size))
}
