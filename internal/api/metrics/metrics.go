// Package metrics defines and registers the custom Prometheus metrics of the
// tracking API. HTTP request metrics come from echoprometheus; this package
// only holds the domain counters.
//
// All metrics are registered with the default Prometheus registry at package
// initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pdftools"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created.",
	},
)

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success" or "invalid"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── Tracking metrics ──────────────────────────────────────────────────────────

// VisitsRecordedTotal counts persisted page visits.
var VisitsRecordedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "visits_recorded_total",
		Help:      "Total number of page visits recorded.",
	},
)

// ToolUsagesRecordedTotal counts counter increments. The tool name is not a
// label because it comes from the client.
// Label:
//   - audience: "authenticated" or "anonymous"
var ToolUsagesRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_usages_recorded_total",
		Help:      "Total number of tool usages recorded, by caller audience.",
	},
	[]string{"audience"},
)

// IdempotentReplaysTotal counts tool usage requests skipped because their
// Idempotency-Key had already been claimed.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of tool usage requests answered from an earlier claim.",
	},
)
