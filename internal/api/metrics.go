package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expenselens_documents_ingested_total",
		Help: "Documents ingested, partitioned by resulting status.",
	}, []string{"status"})

	reviewsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "expenselens_reviews_resolved_total",
		Help: "Review resolutions applied, partitioned by outcome.",
	}, []string{"outcome"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "expenselens_ingest_duration_seconds",
		Help:    "End-to-end ingestion latency including extraction.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
