// Package diag holds the diagnostic counters of the sampler.
package diag

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hwsnap"

// Reasons a sensor reading is dropped.
const (
	ReasonUnavailable     = "unavailable"
	ReasonUnknownLabel    = "unknown_label"
	ReasonIgnoredCategory = "ignored_category"
)

// Metrics are the sampler's counters.
type Metrics struct {
	Polls        prometheus.Counter
	PollFailures prometheus.Counter
	PollDuration prometheus.Histogram
	Dropped      *prometheus.CounterVec
	GPUSkips     prometheus.Counter
	LoopRunning  prometheus.Gauge
}

// New creates the metrics and registers them with reg when reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Completed poll passes over all devices.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Poll passes aborted by a backend error.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one poll pass.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensors_dropped_total",
			Help:      "Sensor readings not assigned to any aggregate field.",
		}, []string{"category", "reason"}),
		GPUSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gpu_refresh_skipped_total",
			Help:      "GPU refreshes skipped because one was already in flight.",
		}),
		LoopRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "background_refresh_running",
			Help:      "Whether the background refresh loop is running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Polls, m.PollFailures, m.PollDuration, m.Dropped, m.GPUSkips, m.LoopRunning)
	}
	return m
}
