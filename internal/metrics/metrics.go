// Package metrics declares the Prometheus instruments shared by the scene,
// undo, render and session packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "editor"

var (
	NodesEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "nodes_evaluated_total",
		Help:      "Scene nodes evaluated, by direction.",
	}, []string{"direction"})

	EvaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of one graph evaluation pass, by direction.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"direction"})

	CycleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "cycles_detected_total",
		Help:      "Dependency cycles detected during evaluation or reparenting.",
	})

	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "undo",
		Name:      "commands_total",
		Help:      "Undo queue transitions, by action (pushed, undone, redone, dropped, evicted).",
	}, []string{"action"})

	ReplayFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "undo",
		Name:      "replay_failures_total",
		Help:      "Commands dropped because undo or redo failed.",
	}, []string{"op"})

	RenderEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "entries",
		Help:      "Render entries drawn per pass.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	RenderPhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "phase_duration_seconds",
		Help:      "Duration of render phases (walk, sort, draw).",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"phase"})

	Traversals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "visitor",
		Name:      "traversals_total",
		Help:      "Hierarchy traversals, by visitor kind.",
	}, []string{"kind"})

	PickHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "render",
		Name:      "pick_hits_total",
		Help:      "Nodes reported by pick passes.",
	})

	SessionClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "clients",
		Help:      "Connected editing clients.",
	})
)
