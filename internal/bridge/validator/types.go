//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package validator

import "github.com/goodnatureofminers/bridge-sentinel/internal/bridge/chain"

type (
	// Family is the subset of chain family capabilities the validator relies on.
	Family interface {
		chain.HeaderDecoder
		chain.ProofValidator
		chain.InclusionHasher
	}
)
