// Package metrics exposes Prometheus instrumentation for the indexing
// pipeline, question answering, and the HTTP surface. Collectors are
// registered once on the default registry and served via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route pattern, and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veridoc",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "veridoc",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	// TasksProcessed counts background tasks by type and outcome.
	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veridoc",
		Subsystem: "worker",
		Name:      "tasks_processed_total",
		Help:      "Background tasks processed by type and outcome.",
	}, []string{"type", "outcome"})

	// TaskDuration observes task processing time by type.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "veridoc",
		Subsystem: "worker",
		Name:      "task_duration_seconds",
		Help:      "Background task processing time.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"type"})

	// DocumentsIndexed counts completed indexing runs by outcome.
	DocumentsIndexed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "veridoc",
		Subsystem: "indexing",
		Name:      "documents_total",
		Help:      "Indexing runs by outcome (indexed, failed).",
	}, []string{"outcome"})

	// ChunksCreated counts chunks written across all indexing runs.
	ChunksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "veridoc",
		Subsystem: "indexing",
		Name:      "chunks_created_total",
		Help:      "Chunks created by the indexing pipeline.",
	})

	// QueueDepth gauges the pending task backlog, refreshed by the worker.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "veridoc",
		Subsystem: "worker",
		Name:      "queue_depth",
		Help:      "Pending tasks in the queue at last poll.",
	})
)
