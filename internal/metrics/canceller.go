package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cancellerScanTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "canceller",
		Name:      "scans_total",
		Help:      "Count of registry scans for cancellable operations.",
	}, []string{"status"})

	cancellerScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "canceller",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a registry scan.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	cancellerFound = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "canceller",
		Name:      "cancellable_operations",
		Help:      "Number of cancellable operations found by the last scan.",
	})

	cancellerEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "canceller",
		Name:      "emitted_total",
		Help:      "Count of cancellable operations handed off.",
	}, []string{"status"})
)

// Canceller tracks metrics for the cancellation scanner.
type Canceller struct{}

func NewCanceller() *Canceller {
	return &Canceller{}
}

func (Canceller) ObserveScan(err error, found int, started time.Time) {
	status := statusOf(err)
	cancellerScanTotal.WithLabelValues(status).Inc()
	cancellerScanDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil {
		cancellerFound.Set(float64(found))
	}
}

func (Canceller) ObserveEmitted(err error, emitted int) {
	cancellerEmittedTotal.WithLabelValues(statusOf(err)).Add(float64(emitted))
}
