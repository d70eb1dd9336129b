// Package metrics defines the Prometheus collectors exported by the engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/biomarker-engine/internal/extract"
	"github.com/pdiddy/biomarker-engine/pkg/types"
)

const namespace = "biomarker_engine"

var (
	// ExtractionsTotal counts biomarker results by confidence tier.
	// Labels: biomarker, tier (pattern, fuzzy, none)
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Biomarker extraction results by confidence tier",
		},
		[]string{"biomarker", "tier"},
	)

	// DocumentsTotal counts processed documents.
	// Labels: result (success, error)
	DocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by outcome",
		},
		[]string{"result"},
	)

	// ExtractionDuration tracks end-to-end document processing time,
	// including text recovery.
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time to read a document and extract its biomarkers",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CacheLookupsTotal counts report cache lookups.
	// Labels: result (hit, miss)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Report cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts HTTP requests.
	// Labels: route, status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
)

// Observer returns an extract.Observer that counts each biomarker result by
// tier.
func Observer() extract.Observer {
	return extract.ObserverFunc(func(r types.Report) {
		for _, e := range r.Entries() {
			ExtractionsTotal.WithLabelValues(e.Name, e.Result.Confidence.Tier()).Inc()
		}
	})
}

// ObserveDocument records the outcome and duration of one document.
func ObserveDocument(start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	DocumentsTotal.WithLabelValues(result).Inc()
	ExtractionDuration.Observe(time.Since(start).Seconds())
}

// ObserveCache records a cache hit or miss.
func ObserveCache(hit bool) {
	if hit {
		CacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	CacheLookupsTotal.WithLabelValues("miss").Inc()
}

// ObserveRequest records one HTTP response.
func ObserveRequest(route string, status int) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
