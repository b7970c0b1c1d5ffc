package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// ReconcileTotal counts ModelStorageBinding reconciles by outcome
	// (result: ok/error, phase: the binding's phase when the
	// reconcile started).
	ReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelfabric_reconcile_total",
			Help: "Total number of ModelStorageBinding reconciles, by result and phase.",
		},
		[]string{"result", "phase"},
	)

	// ReconcileDuration times a single Reconcile call.
	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelfabric_reconcile_duration_seconds",
			Help:    "Duration of ModelStorageBinding Reconcile calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	// DispatchTotal counts dispatcher Bind/Unbind calls by storage kind
	// and outcome (ferrors.Kind, or "ok").
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelfabric_dispatch_total",
			Help: "Total number of dispatcher Bind/Unbind calls, by storage kind and outcome.",
		},
		[]string{"kind", "operation", "outcome"},
	)

	// OptimizerDecisionsTotal counts optimizer placement decisions by
	// policy and whether a candidate was found.
	OptimizerDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelfabric_optimizer_decisions_total",
			Help: "Total number of optimizer placement decisions, by policy and whether a candidate was found.",
		},
		[]string{"policy", "found"},
	)

	// TelemetryMergesTotal counts node/edge telemetry samples merged into
	// the per-namespace graph.
	TelemetryMergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelfabric_telemetry_merges_total",
			Help: "Total number of telemetry samples merged into a namespace graph, by sample kind (node/edge).",
		},
		[]string{"kind"},
	)

	// ProbeDuration times a single capacity probe, including the
	// composition-root timeout.
	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelfabric_probe_duration_seconds",
			Help:    "Duration of ModelStorage capacity probes.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"ok"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		ReconcileTotal,
		ReconcileDuration,
		DispatchTotal,
		OptimizerDecisionsTotal,
		TelemetryMergesTotal,
		ProbeDuration,
	)
}
