// Package registry keeps the durable lifecycle state of cross-chain operations.
package registry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	dbm "github.com/tendermint/tm-db"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// DefaultRecentLimit is the number of most recent operations scanned for cancellability.
const DefaultRecentLimit = 20

var (
	seqMetaKey   = []byte("meta/seq")
	outboxPrefix = []byte("out/")
)

// ApplyResult reports what an Apply call changed.
type ApplyResult struct {
	Recorded     []model.Operation
	Transitioned []model.Operation
	Ignored      int
}

// Empty reports whether the call changed nothing.
func (a ApplyResult) Empty() bool {
	return len(a.Recorded) == 0 && len(a.Transitioned) == 0 && a.Ignored == 0
}

// Registry stores operations keyed by id plus an insertion order index.
// Every mutating call is a single atomic batch.
type Registry struct {
	db          dbm.DB
	recentLimit int

	mtx sync.Mutex
	seq uint64
}

// New opens a registry over db. A non-positive recentLimit selects DefaultRecentLimit.
func New(db dbm.DB, recentLimit int) (*Registry, error) {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	r := &Registry{db: db, recentLimit: recentLimit}

	raw, err := db.Get(seqMetaKey)
	if err != nil {
		return nil, fmt.Errorf("load sequence: %w", err)
	}
	if len(raw) == 8 {
		r.seq = binary.BigEndian.Uint64(raw)
	}
	return r, nil
}

// Count returns the number of recorded operations.
func (r *Registry) Count() uint64 {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.seq
}

// Record inserts operations whose id is unknown. Known ids are ignored, so
// replaying an extraction is harmless. It returns the newly inserted operations.
func (r *Registry) Record(ops []model.Operation) ([]model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	tx := r.begin()
	var recorded []model.Operation
	for _, op := range ops {
		if err := checkOperation(op); err != nil {
			return nil, err
		}
		_, found, err := tx.get(op.ID)
		if err != nil {
			return nil, err
		}
		if found {
			continue
		}
		tx.insert(op)
		recorded = append(recorded, op)
	}
	if err := tx.commit(); err != nil {
		return nil, err
	}
	return recorded, nil
}

// Transition moves operation id to state s. Repeating the current state is a
// no-op; any move that is not forward in lifecycle order is rejected.
func (r *Registry) Transition(id string, s model.State) (model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	tx := r.begin()
	e, found, err := tx.get(id)
	if err != nil {
		return model.Operation{}, err
	}
	if !found {
		return model.Operation{}, &Error{Reason: ErrNotFound, ID: id}
	}
	next, changed, err := advance(e.op, s)
	if err != nil {
		return model.Operation{}, err
	}
	if !changed {
		return e.op, nil
	}
	tx.update(entry{seq: e.seq, op: next})
	if err := tx.commit(); err != nil {
		return model.Operation{}, err
	}
	return next, nil
}

// Apply records unknown operations and transitions known ones to the observed
// state in one atomic batch. A Witnessed observation of an operation that has
// already moved on is ignored since the networks are synced independently.
// Any other rejected transition fails the whole call without writing.
func (r *Registry) Apply(ops []model.Operation) (ApplyResult, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	tx := r.begin()
	var res ApplyResult
	for _, op := range ops {
		if err := checkOperation(op); err != nil {
			return ApplyResult{}, err
		}
		e, found, err := tx.get(op.ID)
		if err != nil {
			return ApplyResult{}, err
		}
		if !found {
			tx.insert(op)
			res.Recorded = append(res.Recorded, op)
			continue
		}
		next, changed, err := advance(e.op, op.State)
		if err != nil {
			if op.State.Kind == model.Witnessed && errors.Is(err, ErrInvalidTransition) {
				res.Ignored++
				continue
			}
			return ApplyResult{}, err
		}
		if !changed {
			res.Ignored++
			continue
		}
		tx.update(entry{seq: e.seq, op: next})
		res.Transitioned = append(res.Transitioned, next)
	}
	if err := tx.commit(); err != nil {
		return ApplyResult{}, err
	}
	return res, nil
}

// Get loads an operation by id.
func (r *Registry) Get(id string) (model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	e, found, err := r.begin().get(id)
	if err != nil {
		return model.Operation{}, err
	}
	if !found {
		return model.Operation{}, &Error{Reason: ErrNotFound, ID: id}
	}
	return e.op, nil
}

// Recent returns up to n most recently recorded operations, newest first.
func (r *Registry) Recent(n int) ([]model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.recent(n)
}

// GetCancellable scans the most recent operations and returns those that are
// enqueued and whose counterparty network has reached enqueue time plus maxDelta.
func (r *Registry) GetCancellable(maxDelta time.Duration, latest model.LatestTimestamps) ([]model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	ops, err := r.recent(r.recentLimit)
	if err != nil {
		return nil, err
	}
	var cancellable []model.Operation
	for _, op := range ops {
		if Cancellable(op, maxDelta, latest) {
			cancellable = append(cancellable, op)
		}
	}
	return cancellable, nil
}

// Cancellable reports whether op has been enqueued for at least maxDelta as
// measured by the latest block timestamp of its counterparty network.
func Cancellable(op model.Operation, maxDelta time.Duration, latest model.LatestTimestamps) bool {
	if op.State.Kind != model.Enqueued {
		return false
	}
	counterparty, ok := latest[op.Counterparty()]
	if !ok {
		return false
	}
	return !counterparty.Before(op.State.Timestamp.Add(maxDelta))
}

func (r *Registry) recent(n int) ([]model.Operation, error) {
	if n <= 0 {
		return nil, nil
	}
	itr, err := r.db.ReverseIterator(seqKey(0), seqKey(r.seq+1))
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var ids []string
	for ; itr.Valid() && len(ids) < n; itr.Next() {
		ids = append(ids, string(itr.Value()))
	}
	if err := itr.Error(); err != nil {
		return nil, err
	}

	ops := make([]model.Operation, 0, len(ids))
	for _, id := range ids {
		e, found, err := r.load(id)
		if err != nil {
			return nil, err
		}
		if found {
			ops = append(ops, e.op)
		}
	}
	return ops, nil
}

// Pending returns up to limit operations that were witnessed but not yet
// acknowledged as handed off, oldest first. Operations the destination already
// picked up leave the outbox on their transition.
func (r *Registry) Pending(limit int) ([]model.Operation, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	itr, err := dbm.IteratePrefix(r.db, outboxPrefix)
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	var ids []string
	for ; itr.Valid() && (limit <= 0 || len(ids) < limit); itr.Next() {
		ids = append(ids, string(itr.Value()))
	}
	if err := itr.Error(); err != nil {
		return nil, err
	}

	ops := make([]model.Operation, 0, len(ids))
	for _, id := range ids {
		e, found, err := r.load(id)
		if err != nil {
			return nil, err
		}
		if found {
			ops = append(ops, e.op)
		}
	}
	return ops, nil
}

// Acknowledge removes ids from the outbox. Unknown ids are ignored.
func (r *Registry) Acknowledge(ids []string) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	batch := r.db.NewBatch()
	defer batch.Close()

	for _, id := range ids {
		e, found, err := r.load(id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := batch.Delete(outboxKey(e.seq)); err != nil {
			return err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("acknowledge handoff: %w", err)
	}
	return nil
}

func (r *Registry) load(id string) (entry, bool, error) {
	raw, err := r.db.Get(operationKey(id))
	if err != nil {
		return entry{}, false, fmt.Errorf("get operation %s: %w", id, err)
	}
	if len(raw) == 0 {
		return entry{}, false, nil
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return entry{}, false, err
	}
	return e, true, nil
}

// advance applies s to op. changed is false when s repeats the current state.
func advance(op model.Operation, s model.State) (model.Operation, bool, error) {
	if !s.Kind.Valid() {
		return op, false, &Error{Reason: ErrUnknownState, ID: op.ID, From: op.State.Kind, To: s.Kind}
	}
	if op.State.Same(s) {
		return op, false, nil
	}
	if op.State.Kind.Terminal() || s.Kind <= op.State.Kind {
		return op, false, &Error{Reason: ErrInvalidTransition, ID: op.ID, From: op.State.Kind, To: s.Kind}
	}
	next := op
	next.History = append(append([]model.State(nil), op.History...), op.State)
	next.State = s
	return next, true, nil
}

func checkOperation(op model.Operation) error {
	if op.ID == "" {
		return &Error{Reason: ErrMissingID}
	}
	if !op.State.Kind.Valid() {
		return &Error{Reason: ErrUnknownState, ID: op.ID, To: op.State.Kind}
	}
	return nil
}

func operationKey(id string) []byte {
	return []byte("op/" + id)
}

func outboxKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", outboxPrefix, seq))
}

func seqKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("seq/%020d", seq))
}

func marshalSeq(seq uint64) []byte {
	bs := make([]byte, 8)
	binary.BigEndian.PutUint64(bs, seq)
	return bs
}
