// Package metrics provides Prometheus metrics for live-feed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetchTotal counts source fetches by outcome.
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Name:      "source_fetch_total",
			Help:      "Total number of source fetches",
		},
		[]string{"source", "status"},
	)

	// SourceItems tracks how many items each source produced in the last pass.
	SourceItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "livefeed",
			Name:      "source_items",
			Help:      "Items produced by a source in the last aggregation pass",
		},
		[]string{"source"},
	)

	// AggregationDuration measures a full aggregation pass.
	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "livefeed",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of aggregation passes in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)

	// CacheReadsTotal counts envelope reads by result (fresh, stale, miss).
	CacheReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Name:      "cache_reads_total",
			Help:      "Total number of feed cache reads",
		},
		[]string{"result"},
	)

	// TranslationsTotal counts translation attempts by outcome.
	TranslationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "livefeed",
			Name:      "translations_total",
			Help:      "Total number of translation attempts",
		},
		[]string{"outcome"},
	)
)

func RecordSourceFetch(source, status string, items int) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceItems.WithLabelValues(source).Set(float64(items))
}

func ObserveAggregation(seconds float64) {
	AggregationDuration.Observe(seconds)
}

func RecordCacheRead(result string) {
	CacheReadsTotal.WithLabelValues(result).Inc()
}

func RecordTranslation(outcome string) {
	TranslationsTotal.WithLabelValues(outcome).Inc()
}
