package extractor

import (
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// DecodeError reports a matched log that could not be decoded.
type DecodeError struct {
	Network  model.NetworkID
	Height   uint64
	TxHash   string
	LogIndex uint32
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %d of tx %s at network %s height %d: %v", e.LogIndex, e.TxHash, e.Network, e.Height, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
