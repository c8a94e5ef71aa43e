package model

import (
	"math/big"
	"time"
)

// StateKind is the lifecycle stage of a cross-chain operation.
// Kinds are ordered: a transition may only move to a greater kind.
type StateKind uint8

const (
	Witnessed StateKind = iota + 1
	Enqueued
	Executed
	Cancelled
)

func (k StateKind) String() string {
	switch k {
	case Witnessed:
		return "witnessed"
	case Enqueued:
		return "enqueued"
	case Executed:
		return "executed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a known state kind.
func (k StateKind) Valid() bool {
	return k >= Witnessed && k <= Cancelled
}

// Terminal reports whether no further transition is allowed from k.
func (k StateKind) Terminal() bool {
	return k == Executed || k == Cancelled
}

// State is an observation of an operation on one side of the bridge.
type State struct {
	Kind      StateKind
	Network   NetworkID
	TxHash    string
	Timestamp time.Time
}

// Same reports whether s and o describe the same observation.
func (s State) Same(o State) bool {
	return s.Kind == o.Kind && s.Network == o.Network && s.TxHash == o.TxHash
}

// Operation is a cross-chain user request tracked by the registry.
type Operation struct {
	ID                 string
	OriginNetwork      NetworkID
	DestinationNetwork NetworkID
	OriginBlockHash    string
	OriginTxHash       string
	Nonce              *big.Int
	OriginAccount      string
	DestinationAccount string
	AssetAddress       string
	Amount             *big.Int
	UserData           []byte
	OptionsMask        string

	State State
	// History lists previous states, oldest first.
	History []State
}

// EnqueuedAt returns the timestamp of the enqueue observation if there is one.
func (o Operation) EnqueuedAt() (time.Time, bool) {
	if o.State.Kind == Enqueued {
		return o.State.Timestamp, true
	}
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].Kind == Enqueued {
			return o.History[i].Timestamp, true
		}
	}
	return time.Time{}, false
}

// Counterparty returns the network opposite to the one the current state was observed on.
func (o Operation) Counterparty() NetworkID {
	if o.State.Network == o.OriginNetwork {
		return o.DestinationNetwork
	}
	return o.OriginNetwork
}

// OperationEvent is an archived state change of an operation.
type OperationEvent struct {
	OperationID        string
	Kind               StateKind
	Network            NetworkID
	OriginNetwork      NetworkID
	DestinationNetwork NetworkID
	TxHash             string
	BlockHeight        uint64
	BlockHash          string
	Amount             *big.Int
	ObservedAt         time.Time
}
