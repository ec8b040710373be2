// Package metrics defines and registers all custom Prometheus metrics for the
// fuel ledger API. It is the single source of truth for metric names, labels,
// and help strings.
//
// The metrics use promauto, so importing the package registers them with the
// default Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fuelledger"

// ── Ledger metrics ────────────────────────────────────────────────────────────

// TransactionsRecordedTotal counts transactions that were accepted into the
// ledger.
// Labels:
//   - type: "IN" or "OUT"
//   - category: the stock category the transaction was posted against
var TransactionsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_recorded_total",
		Help:      "Total number of ledger transactions accepted, by type and category.",
	},
	[]string{"type", "category"},
)

// TransactionsRejectedTotal counts postings that were refused.
// Label:
//   - reason: short description of the refusal (e.g. "insufficient_stock", "forbidden", "invalid_amount")
var TransactionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_rejected_total",
		Help:      "Total number of ledger postings refused, by reason.",
	},
	[]string{"reason"},
)

// SummaryCacheTotal counts summary cache lookups.
// Label:
//   - result: "hit" (served from cache) or "miss" (recomputed from the ledger)
var SummaryCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_cache_total",
		Help:      "Total number of summary cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ReportDuration measures how long a single reporting query takes end-to-end.
// Label:
//   - report: "summary", "stock_trend", "in_out_trend" or "history"
var ReportDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "report_duration_seconds",
		Help:      "Duration of reporting queries from request to response payload.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"report"},
)
