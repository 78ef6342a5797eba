// Package metrics exports prometheus counters describing sync passes.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/CageChen/foldersync/internal/reconciler"
)

var (
	registerOnce sync.Once

	passes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foldersync",
			Subsystem: "pass",
			Name:      "total",
			Help:      "Sync passes by terminal status.",
		},
		[]string{"status"},
	)
	passDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "foldersync",
			Subsystem: "pass",
			Name:      "duration_seconds",
			Help:      "Sync pass duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foldersync",
			Subsystem: "replica",
			Name:      "actions_total",
			Help:      "Mutations applied to the replica.",
		},
		[]string{"kind"},
	)
	itemErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foldersync",
			Subsystem: "replica",
			Name:      "errors_total",
			Help:      "Per-item failures by kind.",
		},
		[]string{"kind"},
	)
	lastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foldersync",
			Subsystem: "pass",
			Name:      "last_success_timestamp_seconds",
			Help:      "Start time of the last pass that finished without errors.",
		},
	)
)

// RegisterMetrics registers the collectors with the default prometheus
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(passes, passDuration, actions, itemErrors, lastSuccess)
	})
}

// RecordPass folds one pass result into the exported metrics. It has the
// shape of a scheduler pass callback.
func RecordPass(res reconciler.PassResult) {
	RegisterMetrics()
	passes.WithLabelValues(string(res.Status)).Inc()
	passDuration.Observe(res.Duration.Seconds())
	for _, a := range res.Actions {
		actions.WithLabelValues(string(a.Kind)).Inc()
	}
	for _, e := range res.Errors {
		itemErrors.WithLabelValues(string(e.Kind)).Inc()
	}
	if res.Status == reconciler.StatusSuccess {
		lastSuccess.Set(float64(res.Started.Unix()))
	}
}
