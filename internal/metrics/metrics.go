package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsExtracted counts event rows read from the source file.
	RowsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventstats_rows_extracted_total",
		Help: "Event rows read from the source log.",
	})

	// RowsSkipped counts malformed source lines dropped at extraction.
	RowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventstats_rows_skipped_total",
		Help: "Malformed source lines skipped at extraction.",
	})

	// DuplicatesDropped counts rows removed by whole-row deduplication.
	DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventstats_duplicates_dropped_total",
		Help: "Rows removed by keep-last whole-row deduplication.",
	})

	// GeoFailures counts ip fields that degraded to empty.
	GeoFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventstats_geo_failures_total",
		Help: "IP fields that could not be resolved to a location.",
	})

	// AgentFallbacks counts user agent strings resolved to the fallback.
	AgentFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventstats_agent_fallbacks_total",
		Help: "User agent strings resolved to the Other fallback.",
	})

	// StatsRequests counts breakdown API requests by dimension and status.
	StatsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventstats_stats_requests_total",
		Help: "Breakdown API requests by dimension and HTTP status.",
	}, []string{"dimension", "status"})
)
