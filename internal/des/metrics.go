package des

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run status label values.
const (
	statusOK       = "ok"
	statusInvalid  = "invalid"
	statusOverflow = "overflow"
)

// Prometheus metrics for estimator runs.
var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "des_runs_total",
			Help: "Total estimate runs by status",
		},
		[]string{"estimator", "status"},
	)

	itemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "des_items_processed_total",
			Help: "Total stream items consumed",
		},
		[]string{"estimator"},
	)

	downsampleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "des_downsample_events_total",
			Help: "Total down-sample passes",
		},
		[]string{"estimator"},
	)

	lastEstimate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "des_estimate",
			Help: "Last published distinct count estimate",
		},
		[]string{"estimator"},
	)

	retentionProbability = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "des_retention_probability",
			Help: "Current retention probability",
		},
		[]string{"estimator"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "des_run_duration_seconds",
			Help:    "Estimate run latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 100us to ~7min
		},
		[]string{"estimator"},
	)
)

// estimatorMetrics holds the collectors curried with one estimator name.
type estimatorMetrics struct {
	runsOK       prometheus.Counter
	runsInvalid  prometheus.Counter
	runsOverflow prometheus.Counter
	items        prometheus.Counter
	downsamples  prometheus.Counter
	estimate     prometheus.Gauge
	probability  prometheus.Gauge
	duration     prometheus.Observer
}

func newEstimatorMetrics(name string) *estimatorMetrics {
	return &estimatorMetrics{
		runsOK:       runsTotal.WithLabelValues(name, statusOK),
		runsInvalid:  runsTotal.WithLabelValues(name, statusInvalid),
		runsOverflow: runsTotal.WithLabelValues(name, statusOverflow),
		items:        itemsProcessedTotal.WithLabelValues(name),
		downsamples:  downsampleEventsTotal.WithLabelValues(name),
		estimate:     lastEstimate.WithLabelValues(name),
		probability:  retentionProbability.WithLabelValues(name),
		duration:     runDuration.WithLabelValues(name),
	}
}
