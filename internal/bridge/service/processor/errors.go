package processor

import (
	"errors"
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/extractor"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/ledger"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/registry"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/validator"
)

// Kind classifies a processing failure.
type Kind string

const (
	KindValidation Kind = "validation"
	KindLedger     Kind = "ledger"
	KindDecode     Kind = "decode"
	KindRegistry   Kind = "registry"
	KindEndpoint   Kind = "endpoint"
	KindInternal   Kind = "internal"
)

var ErrUnknownNetwork = errors.New("network has no lane")

// Error reports the block of a batch that failed and why. Blocks before
// Position were fully applied.
type Error struct {
	Network  model.NetworkID
	Height   uint64
	Position int
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error on network %s at height %d (batch position %d): %v", e.Kind, e.Network, e.Height, e.Position, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf maps an error to its category.
func KindOf(err error) Kind {
	var (
		validationErr *validator.Error
		ledgerErr     *ledger.Error
		decodeErr     *extractor.DecodeError
		registryErr   *registry.Error
		endpointErr   *endpoint.Error
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &ledgerErr):
		return KindLedger
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.As(err, &registryErr):
		return KindRegistry
	case errors.As(err, &endpointErr):
		return KindEndpoint
	default:
		return KindInternal
	}
}
