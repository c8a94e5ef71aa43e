// Package ledger maintains the confirmation-windowed view of a single network's tip.
package ledger

import (
	"fmt"
	"sync"

	dbm "github.com/tendermint/tm-db"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

const (
	anchorPointer = "anchor"
	tailPointer   = "tail"
	canonPointer  = "canon"
	latestPointer = "latest"
)

type pointers struct {
	anchor *model.Block
	tail   *model.Block
	canon  *model.Block
	latest *model.Block
}

func (p pointers) initialized() bool {
	return p.latest != nil
}

// Ledger stores the blocks of one network between anchor and latest together
// with the four chain pointers. Only one insert is in flight at a time.
//
// The db is expected to be dedicated to the network, e.g. a prefix db.
type Ledger struct {
	db        dbm.DB
	cfg       Config
	validator Validator

	mtx      sync.RWMutex
	pointers pointers
}

// New opens a ledger over db and loads persisted pointers, if any.
func New(db dbm.DB, cfg Config, validator Validator) (*Ledger, error) {
	l := &Ledger{db: db, cfg: cfg, validator: validator}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) load() error {
	names := []string{anchorPointer, tailPointer, canonPointer, latestPointer}
	blocks := make([]*model.Block, len(names))
	found := 0
	for i, name := range names {
		hash, err := l.db.Get(pointerKey(name))
		if err != nil {
			return fmt.Errorf("load %s pointer: %w", name, err)
		}
		if len(hash) == 0 {
			continue
		}
		b, err := l.block(string(hash))
		if err != nil {
			return err
		}
		if b == nil {
			return &Error{Reason: ErrPointerInvariant, Network: l.cfg.Network, Detail: fmt.Sprintf("%s pointer references missing block %s", name, hash)}
		}
		blocks[i] = b
		found++
	}
	switch found {
	case 0:
		return nil
	case len(names):
		l.pointers = pointers{anchor: blocks[0], tail: blocks[1], canon: blocks[2], latest: blocks[3]}
		return checkInvariant(l.cfg.Network, l.pointers)
	default:
		return &Error{Reason: ErrPointerInvariant, Network: l.cfg.Network, Detail: "partial pointer set"}
	}
}

// Initialized reports whether Init has been called on this ledger.
func (l *Ledger) Initialized() bool {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.pointers.initialized()
}

// Init stores b as anchor, tail, canon and latest.
func (l *Ledger) Init(b *model.Block) error {
	return l.InitWith(b, nil)
}

// InitWith is Init with a precommit step. The result passed to precommit
// reports b as the new canon.
func (l *Ledger) InitWith(b *model.Block, precommit Precommit) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.pointers.initialized() {
		return &Error{Reason: ErrAlreadyInitialized, Network: l.cfg.Network, Height: b.Height}
	}
	if b.Network != l.cfg.Network {
		return &Error{Reason: ErrWrongNetwork, Network: l.cfg.Network, Height: b.Height, Detail: b.Network.String()}
	}
	if err := l.validator.Validate(b, nil); err != nil {
		return err
	}

	raw, err := encodeBlock(b)
	if err != nil {
		return err
	}
	if precommit != nil {
		if err := precommit(InsertResult{Latest: b, Canon: b, CanonAdvanced: true}); err != nil {
			return err
		}
	}

	batch := l.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(b.Hash), raw); err != nil {
		return err
	}
	if err := batch.Set(heightKey(b.Height), []byte(b.Hash)); err != nil {
		return err
	}
	for _, name := range []string{anchorPointer, tailPointer, canonPointer, latestPointer} {
		if err := batch.Set(pointerKey(name), []byte(b.Hash)); err != nil {
			return err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	l.pointers = pointers{anchor: b, tail: b, canon: b, latest: b}
	return nil
}

// Insert validates b against latest and, on success, atomically stores it,
// advances latest, moves canon and tail when their windows allow and prunes
// blocks older than the new tail. On any error nothing is written.
func (l *Ledger) Insert(b *model.Block) (InsertResult, error) {
	return l.InsertWith(b, nil)
}

// InsertWith is Insert with a precommit step that runs after every ledger
// check passed and before the write. A precommit error is returned as is and
// nothing is written, so the same block can be submitted again.
func (l *Ledger) InsertWith(b *model.Block, precommit Precommit) (InsertResult, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if !l.pointers.initialized() {
		return InsertResult{}, &Error{Reason: ErrNotInitialized, Network: l.cfg.Network, Height: b.Height}
	}
	if b.Network != l.cfg.Network {
		return InsertResult{}, &Error{Reason: ErrWrongNetwork, Network: l.cfg.Network, Height: b.Height, Detail: b.Network.String()}
	}
	prior := l.pointers.latest
	if b.Height != prior.Height+1 {
		return InsertResult{}, &Error{
			Reason:  ErrNotSubsequent,
			Network: l.cfg.Network,
			Height:  b.Height,
			Detail:  fmt.Sprintf("latest is %d", prior.Height),
		}
	}
	if err := l.validator.Validate(b, prior); err != nil {
		return InsertResult{}, err
	}

	pending := map[string]*model.Block{b.Hash: b}
	next := l.pointers
	next.latest = b

	result := InsertResult{Latest: b, Canon: next.canon}

	canon, err := l.nthAncestor(pending, b, l.cfg.Confirmations)
	if err != nil {
		return InsertResult{}, err
	}
	if canon != nil && canon.Height > next.canon.Height {
		next.canon = canon
		result.Canon = canon
		result.CanonAdvanced = true
	}

	if result.CanonAdvanced {
		tail, err := l.nthAncestor(pending, next.canon, l.cfg.TailLength)
		if err != nil {
			return InsertResult{}, err
		}
		if tail != nil && tail.Height > next.tail.Height {
			next.tail = tail
			result.TailAdvanced = true
		}
	}

	if err := checkInvariant(l.cfg.Network, next); err != nil {
		return InsertResult{}, err
	}

	raw, err := encodeBlock(b)
	if err != nil {
		return InsertResult{}, err
	}

	batch := l.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(b.Hash), raw); err != nil {
		return InsertResult{}, err
	}
	if err := batch.Set(heightKey(b.Height), []byte(b.Hash)); err != nil {
		return InsertResult{}, err
	}
	if err := batch.Set(pointerKey(latestPointer), []byte(b.Hash)); err != nil {
		return InsertResult{}, err
	}
	if result.CanonAdvanced {
		if err := batch.Set(pointerKey(canonPointer), []byte(next.canon.Hash)); err != nil {
			return InsertResult{}, err
		}
	}
	if result.TailAdvanced {
		if err := batch.Set(pointerKey(tailPointer), []byte(next.tail.Hash)); err != nil {
			return InsertResult{}, err
		}
		pruned, err := l.prune(batch, next)
		if err != nil {
			return InsertResult{}, err
		}
		result.Pruned = pruned
	}

	if precommit != nil {
		if err := precommit(result); err != nil {
			return InsertResult{}, err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return InsertResult{}, fmt.Errorf("insert block %d: %w", b.Height, err)
	}

	l.pointers = next
	return result, nil
}

// prune schedules deletion of every block below the new tail except the anchor.
func (l *Ledger) prune(batch dbm.Batch, next pointers) (int, error) {
	itr, err := l.db.Iterator(heightKey(0), heightKey(next.tail.Height))
	if err != nil {
		return 0, err
	}
	defer itr.Close()

	pruned := 0
	for ; itr.Valid(); itr.Next() {
		hash := string(itr.Value())
		if hash == next.anchor.Hash {
			continue
		}
		if err := batch.Delete(itr.Key()); err != nil {
			return 0, err
		}
		if err := batch.Delete(blockKey(hash)); err != nil {
			return 0, err
		}
		pruned++
	}
	return pruned, itr.Error()
}

// Latest returns the most recently inserted block.
func (l *Ledger) Latest() (*model.Block, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.pointers.latest, l.pointers.latest != nil
}

// Canon returns the block operations are extracted from.
func (l *Ledger) Canon() (*model.Block, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.pointers.canon, l.pointers.canon != nil
}

// Tail returns the pruning boundary block.
func (l *Ledger) Tail() (*model.Block, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.pointers.tail, l.pointers.tail != nil
}

// Anchor returns the oldest retained block.
func (l *Ledger) Anchor() (*model.Block, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.pointers.anchor, l.pointers.anchor != nil
}

// Block loads a retained block by hash. A missing block yields nil without error.
func (l *Ledger) Block(hash string) (*model.Block, error) {
	return l.block(hash)
}

// NthAncestor follows parent links from hash n times. It returns nil without
// error when retained history is insufficient.
func (l *Ledger) NthAncestor(hash string, n uint64) (*model.Block, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	b, err := l.block(hash)
	if err != nil || b == nil {
		return nil, err
	}
	return l.nthAncestor(nil, b, n)
}

// Snapshot returns the current pointers.
func (l *Ledger) Snapshot() model.LedgerSnapshot {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	return model.LedgerSnapshot{
		Network:     l.cfg.Network,
		Initialized: l.pointers.initialized(),
		Anchor:      model.PointerOf(l.pointers.anchor),
		Tail:        model.PointerOf(l.pointers.tail),
		Canon:       model.PointerOf(l.pointers.canon),
		Latest:      model.PointerOf(l.pointers.latest),
	}
}

func (l *Ledger) nthAncestor(pending map[string]*model.Block, from *model.Block, n uint64) (*model.Block, error) {
	cur := from
	for i := uint64(0); i < n; i++ {
		if cur.Height == 0 {
			return nil, nil
		}
		parent, ok := pending[cur.ParentHash]
		if !ok {
			var err error
			parent, err = l.block(cur.ParentHash)
			if err != nil {
				return nil, err
			}
		}
		if parent == nil {
			return nil, nil
		}
		cur = parent
	}
	return cur, nil
}

func (l *Ledger) block(hash string) (*model.Block, error) {
	raw, err := l.db.Get(blockKey(hash))
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return decodeBlock(raw)
}

func checkInvariant(network model.NetworkID, p pointers) error {
	if p.anchor.Height <= p.tail.Height && p.tail.Height <= p.canon.Height && p.canon.Height <= p.latest.Height {
		return nil
	}
	return &Error{
		Reason:  ErrPointerInvariant,
		Network: network,
		Height:  p.latest.Height,
		Detail: fmt.Sprintf("anchor %d tail %d canon %d latest %d",
			p.anchor.Height, p.tail.Height, p.canon.Height, p.latest.Height),
	}
}

func blockKey(hash string) []byte {
	return []byte("b/" + hash)
}

func heightKey(height uint64) []byte {
	return []byte(fmt.Sprintf("h/%020d", height))
}

func pointerKey(name string) []byte {
	return []byte("p/" + name)
}
