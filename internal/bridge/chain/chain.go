// Package chain defines the capabilities a chain family provides to the relay core.
package chain

import (
	"context"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

type (
	// HeaderDecoder decodes raw header bytes into the chain agnostic header view.
	HeaderDecoder interface {
		DecodeHeader(raw []byte) (model.Header, error)
	}

	// ProofValidator checks the consensus proof carried by a raw header.
	ProofValidator interface {
		ValidateProof(raw []byte) error
	}

	// InclusionHasher recomputes the header inclusion root from block evidence.
	InclusionHasher interface {
		ComputeInclusionRoot(evidence [][]byte) (string, error)
	}

	// LogReader extracts normalized logs from a block's evidence.
	LogReader interface {
		Logs(b *model.Block) ([]model.Log, error)
	}

	// Family is the full capability set of a chain family.
	Family interface {
		HeaderDecoder
		ProofValidator
		InclusionHasher
		LogReader
		Name() model.Family
	}

	// Source provides blocks of one network assembled into ledger records.
	Source interface {
		LatestHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*model.Block, error)
	}
)
