//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package extractor

import "github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"

type (
	// LogReader extracts logs from the evidence of a block.
	LogReader interface {
		Logs(b *model.Block) ([]model.Log, error)
	}

	// Schema decodes a matched log into an operation observation.
	Schema interface {
		Topics() []string
		Decode(b *model.Block, log model.Log) (model.Operation, error)
	}
)
