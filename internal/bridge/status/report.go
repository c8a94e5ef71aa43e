// Package status exposes the relay state: ledger pointers per network and the
// most recent operations of the registry.
package status

import (
	"fmt"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/handoff"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

const (
	defaultRecent = 20
	maxRecent     = 200
)

type Network struct {
	ID string `json:"id"`
	model.LedgerSnapshot
}

type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Networks    []Network         `json:"networks"`
	Operations  uint64            `json:"operations"`
	Recent      []handoff.Message `json:"recent"`
}

// Collector builds reports from the live components.
type Collector struct {
	snapshots  Snapshots
	operations Operations
	now        func() time.Time
}

func NewCollector(snapshots Snapshots, operations Operations) *Collector {
	return &Collector{
		snapshots:  snapshots,
		operations: operations,
		now:        time.Now,
	}
}

// Collect returns the current report with up to recent operations, newest first.
func (c *Collector) Collect(recent int) (Report, error) {
	recent = clampRecent(recent)
	ops, err := c.operations.Recent(recent)
	if err != nil {
		return Report{}, fmt.Errorf("recent operations: %w", err)
	}

	snapshots := c.snapshots.Snapshots()
	report := Report{
		GeneratedAt: c.now().UTC(),
		Networks:    make([]Network, 0, len(snapshots)),
		Operations:  c.operations.Count(),
		Recent:      make([]handoff.Message, 0, len(ops)),
	}
	for _, s := range snapshots {
		report.Networks = append(report.Networks, Network{ID: s.Network.String(), LedgerSnapshot: s})
	}
	for _, op := range ops {
		report.Recent = append(report.Recent, handoff.NewMessage("", op))
	}
	return report, nil
}

func clampRecent(n int) int {
	if n <= 0 {
		return defaultRecent
	}
	return min(n, maxRecent)
}
