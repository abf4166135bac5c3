package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eulerlevel_runs_enqueued_total",
		Help: "Total number of level computations placed on the run queue.",
	})

	RunsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eulerlevel_runs_dropped_total",
		Help: "Total number of level computations rejected due to a full queue.",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eulerlevel_runs_completed_total",
		Help: "Total number of level computations that produced depths for every node.",
	})

	RunsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eulerlevel_runs_failed_total",
		Help: "Total number of failed level computations, labelled by failure stage.",
	}, []string{"stage"})

	RankTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eulerlevel_rank_transitions_total",
		Help: "Total number of rank state transitions, labelled by the state entered.",
	}, []string{"state"})

	CollectiveOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eulerlevel_collective_ops_total",
		Help: "Total number of completed collective rounds, labelled by operation.",
	}, []string{"op"})

	CollectiveBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eulerlevel_collective_bytes_total",
		Help: "Total number of payload bytes moved by collectives, labelled by operation.",
	}, []string{"op"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eulerlevel_run_duration_ms",
		Help:    "Level computation latency in milliseconds, from rank launch to result.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
	})

	RunEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eulerlevel_run_edges",
		Help:    "Directed edge count, and so rank count, of each level computation.",
		Buckets: prometheus.ExponentialBuckets(2, 2, 8),
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eulerlevel_queue_utilization_ratio",
		Help: "Current run queue utilization (0–1).",
	})
)
