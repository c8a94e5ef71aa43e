package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	archiveStatements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "archive",
		Name:      "statements_total",
		Help:      "ClickHouse statements issued by the operation event archive.",
	}, []string{"statement", "status"})
	archiveStatementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "archive",
		Name:      "statement_duration_seconds",
		Help:      "Duration of archive statements, batch send included.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"statement", "status"})
)

// ClickhouseRepository observes the operation event archive.
type ClickhouseRepository struct{}

// NewClickhouseRepository creates a ClickhouseRepository.
func NewClickhouseRepository() *ClickhouseRepository {
	return &ClickhouseRepository{}
}

// Observe records one archive statement.
func (ClickhouseRepository) Observe(statement string, err error, started time.Time) {
	status := statusOf(err)
	archiveStatements.WithLabelValues(statement, status).Inc()
	archiveStatementDuration.WithLabelValues(statement, status).Observe(time.Since(started).Seconds())
}
