package model

import "time"

// Header is the chain agnostic view of a decoded block header.
type Header struct {
	Hash          string
	ParentHash    string
	Height        uint64
	HeightKnown   bool
	Timestamp     time.Time
	InclusionRoot string
}

// Block is a block record as submitted to and stored by the ledger.
type Block struct {
	Network    NetworkID
	Height     uint64
	Hash       string
	ParentHash string
	Timestamp  time.Time
	// Header holds the raw, chain specific header bytes.
	Header []byte
	// Evidence holds the raw inclusion evidence: serialized transactions for
	// UTXO chains, consensus encoded receipts for EVM chains.
	Evidence [][]byte
	// TxHashes is aligned with Evidence.
	TxHashes []string
}

// Log is a normalized event emitted inside a block.
type Log struct {
	Address string
	Topics  []string
	Data    []byte
	TxHash  string
	Index   uint32
}

// Batch groups blocks of one network submitted to the processor together.
type Batch struct {
	Network NetworkID
	// Init marks the first block of the batch as the ledger initialization block.
	Init   bool
	Blocks []*Block
}

// Pointer identifies a block referenced by a ledger pointer.
type Pointer struct {
	Height    uint64    `json:"height"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

// LedgerSnapshot is a read-only view of the ledger pointers of a network.
type LedgerSnapshot struct {
	Network     NetworkID `json:"-"`
	Name        string    `json:"name"`
	Initialized bool      `json:"initialized"`
	Anchor      Pointer   `json:"anchor"`
	Tail        Pointer   `json:"tail"`
	Canon       Pointer   `json:"canon"`
	Latest      Pointer   `json:"latest"`
}

// PointerOf builds a Pointer from a block, nil yields the zero value.
func PointerOf(b *Block) Pointer {
	if b == nil {
		return Pointer{}
	}
	return Pointer{Height: b.Height, Hash: b.Hash, Timestamp: b.Timestamp}
}
