package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

var (
	processorBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "batches_total",
		Help:      "Count of batches processed.",
	}, []string{"network", "status"})

	processorBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "batch_duration_seconds",
		Help:      "Duration of processing a batch.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network", "status"})

	processorBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "blocks_total",
		Help:      "Count of blocks accepted by kind.",
	}, []string{"network", "kind"})

	processorBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "block_duration_seconds",
		Help:      "Duration of processing a single block.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"network", "kind"})

	processorOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "operations_total",
		Help:      "Count of registry updates by outcome.",
	}, []string{"network", "outcome"})

	processorPointerHeight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "ledger_pointer_height",
		Help:      "Height of ledger pointers.",
	}, []string{"network", "pointer"})

	processorPointerTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "processor",
		Name:      "ledger_pointer_timestamp_seconds",
		Help:      "Block timestamp of ledger pointers.",
	}, []string{"network", "pointer"})
)

// Processor tracks metrics of the shared processor.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

// ObserveBatch records a processed batch.
func (Processor) ObserveBatch(network string, err error, _ int, started time.Time) {
	network = labelOrUnknown(network)
	status := statusOf(err)
	processorBatchTotal.WithLabelValues(network, status).Inc()
	processorBatchDuration.WithLabelValues(network, status).Observe(time.Since(started).Seconds())
}

// ObserveBlock records a processed block, kind is "accepted" or the rejection kind.
func (Processor) ObserveBlock(network string, kind string, started time.Time) {
	network = labelOrUnknown(network)
	processorBlocksTotal.WithLabelValues(network, kind).Inc()
	processorBlockDuration.WithLabelValues(network, kind).Observe(time.Since(started).Seconds())
}

func (Processor) ObserveOperations(network string, recorded, transitioned, ignored int) {
	network = labelOrUnknown(network)
	processorOperationsTotal.WithLabelValues(network, "recorded").Add(float64(recorded))
	processorOperationsTotal.WithLabelValues(network, "transitioned").Add(float64(transitioned))
	processorOperationsTotal.WithLabelValues(network, "ignored").Add(float64(ignored))
}

// ObservePointers exports every ledger pointer of the snapshot.
func (Processor) ObservePointers(s model.LedgerSnapshot) {
	network := labelOrUnknown(s.Name)
	for name, p := range map[string]model.Pointer{
		"anchor": s.Anchor,
		"tail":   s.Tail,
		"canon":  s.Canon,
		"latest": s.Latest,
	} {
		processorPointerHeight.WithLabelValues(network, name).Set(float64(p.Height))
		if !p.Timestamp.IsZero() {
			processorPointerTimestamp.WithLabelValues(network, name).Set(float64(p.Timestamp.Unix()))
		}
	}
}
