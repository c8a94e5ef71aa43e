// Package extractor decodes bridge operations from the logs of confirmed blocks.
package extractor

import (
	"fmt"
	"strings"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// Extractor scans canon blocks of one network for logs emitted by the bridge contract.
type Extractor struct {
	logs    LogReader
	schema  Schema
	address string
	topics  map[string]struct{}
}

// New creates an Extractor matching logs emitted by address with one of topics.
// When topics is empty the schema topics are used.
func New(logs LogReader, schema Schema, address string, topics []string) *Extractor {
	if len(topics) == 0 {
		topics = schema.Topics()
	}
	set := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		set[strings.ToLower(topic)] = struct{}{}
	}
	return &Extractor{
		logs:    logs,
		schema:  schema,
		address: address,
		topics:  set,
	}
}

// Extract decodes every matching log of canon. A nil canon or a block without
// matching logs yields an empty result. Any decode failure fails the whole call.
func (e *Extractor) Extract(canon *model.Block) ([]model.Operation, error) {
	if canon == nil {
		return nil, nil
	}

	logs, err := e.logs.Logs(canon)
	if err != nil {
		return nil, &DecodeError{Network: canon.Network, Height: canon.Height, Err: fmt.Errorf("read logs: %w", err)}
	}

	var ops []model.Operation
	for _, log := range logs {
		if !e.matches(log) {
			continue
		}
		op, err := e.schema.Decode(canon, log)
		if err != nil {
			return nil, &DecodeError{
				Network:  canon.Network,
				Height:   canon.Height,
				TxHash:   log.TxHash,
				LogIndex: log.Index,
				Err:      err,
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func (e *Extractor) matches(log model.Log) bool {
	if !strings.EqualFold(log.Address, e.address) || len(log.Topics) == 0 {
		return false
	}
	_, ok := e.topics[strings.ToLower(log.Topics[0])]
	return ok
}
