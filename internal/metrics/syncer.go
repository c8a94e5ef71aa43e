package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncerFetchLatestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "fetch_latest_total",
		Help:      "Count of attempts to fetch the remote chain height.",
	}, []string{"network", "status"})

	syncerFetchLatestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "fetch_latest_duration_seconds",
		Help:      "Duration of fetching the remote chain height.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	syncerFetchBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "fetch_blocks_total",
		Help:      "Count of block range fetches.",
	}, []string{"network", "status"})

	syncerFetchBlocksDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "fetch_blocks_duration_seconds",
		Help:      "Duration of fetching a block range.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	syncerSubmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "submit_total",
		Help:      "Count of batches submitted to the processor.",
	}, []string{"network", "status"})

	syncerSubmitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "submit_duration_seconds",
		Help:      "Duration of processing a submitted batch.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	syncerBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "batch_size",
		Help:      "Number of blocks per submitted batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"network"})

	syncerHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "height",
		Help:      "Latest known height by source.",
	}, []string{"network", "source"})
)

// Syncer tracks metrics for the syncer of a network.
type Syncer struct {
	network string
}

// NewSyncer constructs a Syncer with defaults.
func NewSyncer(network string) *Syncer {
	return &Syncer{network: labelOrUnknown(network)}
}

// ObserveFetchLatest records a remote height fetch outcome and duration.
func (m Syncer) ObserveFetchLatest(err error, started time.Time) {
	status := statusOf(err)
	syncerFetchLatestTotal.WithLabelValues(m.network, status).Inc()
	syncerFetchLatestDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
}

func (m Syncer) ObserveFetchBlocks(err error, _ int, started time.Time) {
	status := statusOf(err)
	syncerFetchBlocksTotal.WithLabelValues(m.network, status).Inc()
	syncerFetchBlocksDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
}

// ObserveSubmit records a batch handed to the processor.
func (m Syncer) ObserveSubmit(err error, blocks int, started time.Time) {
	status := statusOf(err)
	syncerSubmitTotal.WithLabelValues(m.network, status).Inc()
	syncerSubmitDuration.WithLabelValues(m.network, status).Observe(time.Since(started).Seconds())
	syncerBatchSize.WithLabelValues(m.network).Observe(float64(blocks))
}

func (m Syncer) SetHeights(remote, local uint64) {
	syncerHeight.WithLabelValues(m.network, "remote").Set(float64(remote))
	syncerHeight.WithLabelValues(m.network, "local").Set(float64(local))
}
