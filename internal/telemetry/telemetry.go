// Package telemetry registers the process-wide Prometheus metrics
// served on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsIngested counts documents that made it into the store.
	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "climafact",
		Name:      "documents_ingested_total",
		Help:      "Documents successfully ingested into the vector store.",
	})

	// DocumentsSkipped counts documents dropped during extraction or
	// normalization, partitioned by reason.
	DocumentsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climafact",
		Name:      "documents_skipped_total",
		Help:      "Documents skipped during ingestion.",
	}, []string{"reason"})

	// ChunksUpserted counts chunk upserts into the vector store.
	ChunksUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "climafact",
		Name:      "chunks_upserted_total",
		Help:      "Chunks written to the vector store.",
	})

	// EmbeddingBatches counts embedding service calls by outcome.
	EmbeddingBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climafact",
		Name:      "embedding_batches_total",
		Help:      "Embedding batches processed.",
	}, []string{"outcome"})

	// Checks counts fact-check requests by result status.
	Checks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "climafact",
		Name:      "checks_total",
		Help:      "Fact-check requests by result status.",
	}, []string{"status"})

	// CheckDuration observes end-to-end fact-check latency.
	CheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "climafact",
		Name:      "check_duration_seconds",
		Help:      "End-to-end fact-check latency.",
		Buckets:   prometheus.DefBuckets,
	})
)
