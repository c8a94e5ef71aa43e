//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package ledger

import "github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"

type (
	// Validator checks a candidate block against the current latest block.
	Validator interface {
		Validate(b *model.Block, prior *model.Block) error
	}
)

// Config holds the per-network window sizes.
type Config struct {
	Network       model.NetworkID
	Confirmations uint64
	TailLength    uint64
}

// InsertResult reports the pointer movement caused by an insert.
type InsertResult struct {
	Latest        *model.Block
	Canon         *model.Block
	CanonAdvanced bool
	TailAdvanced  bool
	Pruned        int
}

// Precommit runs inside an insert once the block passed every check and
// before anything is written. A non-nil error discards the insert.
type Precommit func(InsertResult) error
