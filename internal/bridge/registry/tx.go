package registry

import (
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// tx stages writes so that a call either commits all of them or none.
type tx struct {
	r       *Registry
	seq     uint64
	pending map[string]entry
	order   []string
	fresh   map[string]bool
}

func (r *Registry) begin() *tx {
	return &tx{r: r, seq: r.seq, pending: map[string]entry{}, fresh: map[string]bool{}}
}

func (t *tx) get(id string) (entry, bool, error) {
	if e, ok := t.pending[id]; ok {
		return e, true, nil
	}
	return t.r.load(id)
}

func (t *tx) insert(op model.Operation) {
	t.seq++
	t.stage(entry{seq: t.seq, op: op})
	t.fresh[op.ID] = true
}

func (t *tx) update(e entry) {
	t.stage(e)
}

func (t *tx) stage(e entry) {
	if _, ok := t.pending[e.op.ID]; !ok {
		t.order = append(t.order, e.op.ID)
	}
	t.pending[e.op.ID] = e
}

func (t *tx) commit() error {
	if len(t.pending) == 0 {
		return nil
	}

	batch := t.r.db.NewBatch()
	defer batch.Close()

	for _, id := range t.order {
		e := t.pending[id]
		raw, err := encodeEntry(e)
		if err != nil {
			return err
		}
		if err := batch.Set(operationKey(id), raw); err != nil {
			return err
		}
		if t.fresh[id] {
			if err := batch.Set(seqKey(e.seq), []byte(id)); err != nil {
				return err
			}
		}
		switch {
		case e.op.State.Kind != model.Witnessed:
			if err := batch.Delete(outboxKey(e.seq)); err != nil {
				return err
			}
		case t.fresh[id]:
			if err := batch.Set(outboxKey(e.seq), []byte(id)); err != nil {
				return err
			}
		}
	}
	if t.seq != t.r.seq {
		if err := batch.Set(seqMetaKey, marshalSeq(t.seq)); err != nil {
			return err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("commit registry batch: %w", err)
	}
	t.r.seq = t.seq
	return nil
}
