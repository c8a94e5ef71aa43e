package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	endpointAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "endpoint",
		Name:      "attempts_total",
		Help:      "Count of calls attempted against a node endpoint.",
	}, []string{"operation", "network", "status"})
	endpointAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "endpoint",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of calls attempted against a node endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "network", "status"})
	endpointRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "endpoint",
		Name:      "rotations_total",
		Help:      "Count of switches to the next configured endpoint.",
	}, []string{"network", "wrapped"})
)

// Endpoint tracks metrics of the endpoint manager of a network.
type Endpoint struct {
	network string
}

func NewEndpoint(network string) *Endpoint {
	return &Endpoint{network: labelOrUnknown(network)}
}

// ObserveAttempt records one attempt of a call through the manager.
func (m Endpoint) ObserveAttempt(operation string, err error, started time.Time) {
	status := statusOf(err)
	endpointAttemptsTotal.WithLabelValues(operation, m.network, status).Inc()
	endpointAttemptDuration.WithLabelValues(operation, m.network, status).Observe(time.Since(started).Seconds())
}

// ObserveRotation records a rotation, wrapped is set when the list restarted from the first endpoint.
func (m Endpoint) ObserveRotation(wrapped bool) {
	endpointRotationsTotal.WithLabelValues(m.network, strconv.FormatBool(wrapped)).Inc()
}
