// Package validator implements stateless checks on a submitted block and its evidence.
package validator

import (
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// Checks toggles individual validation rules.
type Checks struct {
	Identity  bool
	Linkage   bool
	Proof     bool
	Inclusion bool
}

// AllChecks enables every rule.
func AllChecks() Checks {
	return Checks{Identity: true, Linkage: true, Proof: true, Inclusion: true}
}

// Validator checks blocks of a single chain family. It holds no mutable state.
type Validator struct {
	family Family
	checks Checks
}

// New creates a Validator for family with the given checks enabled.
func New(family Family, checks Checks) *Validator {
	return &Validator{family: family, checks: checks}
}

// Checks returns the enabled rules.
func (v *Validator) Checks() Checks {
	return v.checks
}

// Validate checks b against its own bytes and, when prior is not nil, against
// the previous latest block. It never performs I/O.
func (v *Validator) Validate(b *model.Block, prior *model.Block) error {
	if b == nil {
		return fmt.Errorf("validate: nil block")
	}

	var header model.Header
	if v.checks.Identity || v.checks.Inclusion {
		h, err := v.family.DecodeHeader(b.Header)
		if err != nil {
			return newError(ErrInvalidBlockHeader, b, err)
		}
		header = h
	}

	if v.checks.Identity {
		if err := checkIdentity(b, header); err != nil {
			return newError(ErrInvalidBlockHeader, b, err)
		}
	}

	if v.checks.Linkage && prior != nil && b.ParentHash != prior.Hash {
		return newError(ErrNoParent, b, fmt.Errorf("parent %s, latest %s", b.ParentHash, prior.Hash))
	}

	if v.checks.Proof {
		if err := v.family.ValidateProof(b.Header); err != nil {
			return newError(ErrInvalidProofOfWork, b, err)
		}
	}

	if v.checks.Inclusion {
		if len(b.Evidence) != len(b.TxHashes) {
			return newError(ErrInvalidMerkleRoot, b, fmt.Errorf("%d evidence entries for %d tx hashes", len(b.Evidence), len(b.TxHashes)))
		}
		root, err := v.family.ComputeInclusionRoot(b.Evidence)
		if err != nil {
			return newError(ErrInvalidMerkleRoot, b, err)
		}
		if root != header.InclusionRoot {
			return newError(ErrInvalidMerkleRoot, b, fmt.Errorf("computed %s, header %s", root, header.InclusionRoot))
		}
	}

	return nil
}

func checkIdentity(b *model.Block, h model.Header) error {
	switch {
	case h.Hash != b.Hash:
		return fmt.Errorf("computed hash %s, claimed %s", h.Hash, b.Hash)
	case h.ParentHash != b.ParentHash:
		return fmt.Errorf("header parent %s, claimed %s", h.ParentHash, b.ParentHash)
	case h.HeightKnown && h.Height != b.Height:
		return fmt.Errorf("header height %d, claimed %d", h.Height, b.Height)
	case !h.Timestamp.Equal(b.Timestamp):
		return fmt.Errorf("header time %s, claimed %s", h.Timestamp, b.Timestamp)
	}
	return nil
}
