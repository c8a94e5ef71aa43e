package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	handoffMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "handoff",
		Name:      "messages_total",
		Help:      "Count of operations published to the broker.",
	}, []string{"stream", "status"})
	handoffPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "handoff",
		Name:      "publish_duration_seconds",
		Help:      "Duration of publishing a batch of operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stream", "status"})

	statusPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "publish_total",
		Help:      "Count of status reports written to the cache.",
	}, []string{"status"})
	statusPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "status",
		Name:      "publish_duration_seconds",
		Help:      "Duration of writing a status report to the cache.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})
)

// HandoffPublisher tracks metrics of the broker publisher.
type HandoffPublisher struct{}

func NewHandoffPublisher() *HandoffPublisher {
	return &HandoffPublisher{}
}

func (HandoffPublisher) Observe(stream string, err error, messages int, started time.Time) {
	status := statusOf(err)
	handoffMessagesTotal.WithLabelValues(stream, status).Add(float64(messages))
	handoffPublishDuration.WithLabelValues(stream, status).Observe(time.Since(started).Seconds())
}

// StatusPublisher tracks metrics of the status cache publisher.
type StatusPublisher struct{}

func NewStatusPublisher() *StatusPublisher {
	return &StatusPublisher{}
}

func (StatusPublisher) Observe(err error, started time.Time) {
	status := statusOf(err)
	statusPublishTotal.WithLabelValues(status).Inc()
	statusPublishDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}
