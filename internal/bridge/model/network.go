// Package model defines domain models shared by the bridge relay components.
package model

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NetworkID is the 4-byte identifier the bridge protocol uses for a network.
type NetworkID [4]byte

// ParseNetworkID parses a hex encoded network id with or without 0x prefix.
func ParseNetworkID(s string) (NetworkID, error) {
	var id NetworkID
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if err != nil {
		return id, fmt.Errorf("parse network id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("parse network id %q: want %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id NetworkID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the id is unset.
func (id NetworkID) IsZero() bool {
	return id == NetworkID{}
}

// Family names the chain family a network belongs to.
type Family string

var (
	// UTXO covers bitcoin-like chains with proof-of-work headers and transaction merkle roots.
	UTXO Family = "utxo"
	// EVM covers account-model chains with RLP headers and receipt trie roots.
	EVM Family = "evm"
)

// LatestTimestamps maps a network to the timestamp of its latest ledger block.
type LatestTimestamps map[NetworkID]time.Time
