package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var depositSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "deposit",
	Name:      "skipped_total",
	Help:      "Count of payments to a deposit address skipped for a malformed destination.",
}, []string{"network", "reason"})

// Deposit tracks deposit payments that were not turned into operations.
type Deposit struct {
	network string
}

func NewDeposit(network string) *Deposit {
	return &Deposit{network: labelOrUnknown(network)}
}

func (d *Deposit) ObserveSkipped(reason string) {
	depositSkippedTotal.WithLabelValues(d.network, labelOrUnknown(reason)).Inc()
}
