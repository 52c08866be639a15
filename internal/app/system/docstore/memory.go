package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process Store. Batches are applied by building the new
// state on copies of the touched collections and swapping them in under
// the write lock, so a failed commit leaves nothing behind.
type Memory struct {
	mu       sync.RWMutex
	colls    map[string]map[string]memEntry
	seq      uint64
	maxOps   int
	onCommit func(ops int) error
	commits  int
}

type memEntry struct {
	data bson.M
	seq  uint64 // insertion order, used for stable listing
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMaxBatchOps overrides the per-batch operation ceiling.
func WithMaxBatchOps(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxOps = n
		}
	}
}

// WithCommitHook installs a function called before each batch commit is
// applied. Returning an error fails that commit with no changes applied.
func WithCommitHook(fn func(ops int) error) MemoryOption {
	return func(m *Memory) { m.onCommit = fn }
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		colls:  make(map[string]map[string]memEntry),
		maxOps: DefaultMaxBatchOps,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Commits returns how many batch commits have been applied successfully.
func (m *Memory) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// Count returns the number of documents in coll.
func (m *Memory) Count(coll string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.colls[coll])
}

func (m *Memory) MaxBatchOps() int { return m.maxOps }

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Get(ctx context.Context, coll, id string) (Doc, error) {
	if err := ctx.Err(); err != nil {
		return Doc{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.colls[coll][id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, Data: cloneMap(e.data)}, nil
}

func (m *Memory) List(ctx context.Context, coll string, q Query) ([]Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conds := make([]Cond, len(q.Where))
	for i, c := range q.Where {
		conds[i] = Cond{Field: c.Field, Op: c.Op, Value: scalarCond(c.Value)}
	}

	m.mu.RLock()
	type hit struct {
		id  string
		e   memEntry
		key any
	}
	var hits []hit
	for id, e := range m.colls[coll] {
		ok := true
		for _, c := range conds {
			if !matches(id, e.data, c) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		h := hit{id: id, e: e}
		if q.OrderBy != "" {
			if q.OrderBy == "_id" {
				h.key = id
			} else {
				k, has := lookup(e.data, q.OrderBy)
				if !has {
					continue
				}
				h.key = k
			}
		}
		hits = append(hits, h)
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool {
		if q.OrderBy == "" {
			return hits[i].e.seq < hits[j].e.seq
		}
		c, _ := compare(hits[i].key, hits[j].key)
		if c == 0 {
			if hits[i].id == hits[j].id {
				return false
			}
			if q.Desc {
				return hits[i].id > hits[j].id
			}
			return hits[i].id < hits[j].id
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]Doc, len(hits))
	for i, h := range hits {
		out[i] = Doc{ID: h.id, Data: cloneMap(h.e.data)}
	}
	return out, nil
}

// scalarCond normalizes condition values so they compare against
// canonical stored values.
func scalarCond(v any) any {
	if vals, ok := v.([]string); ok {
		return vals
	}
	if vals, ok := v.([]any); ok {
		out := make([]any, len(vals))
		for i, e := range vals {
			out[i] = scalar(e)
		}
		return out
	}
	return scalar(v)
}

func (m *Memory) Put(ctx context.Context, coll, id string, data bson.M, merge bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		id = NewID()
	}
	op := batchOp{kind: opSet, coll: coll, id: id, data: data}
	if merge {
		op.kind, op.upsert = opUpdate, true
	}
	if err := m.apply([]batchOp{op}, false); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Delete(ctx context.Context, coll, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.apply([]batchOp{{kind: opDelete, coll: coll, id: id}}, false)
}

func (m *Memory) Append(ctx context.Context, coll, id, field string, values ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.apply([]batchOp{{kind: opAppend, coll: coll, id: id, field: field, values: values}}, false)
}

func (m *Memory) Batch() Batch { return &memBatch{m: m} }

type memBatch struct {
	opQueue
	m *Memory
}

func (b *memBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(b.ops) > b.m.maxOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(b.ops), b.m.maxOps)
	}
	if len(b.ops) == 0 {
		return nil
	}
	return b.m.apply(b.ops, true)
}

// apply runs ops against copies of the touched collections and swaps them
// in only if every op succeeds.
func (m *Memory) apply(ops []batchOp, isBatch bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isBatch && m.onCommit != nil {
		if err := m.onCommit(len(ops)); err != nil {
			return err
		}
	}

	staged := make(map[string]map[string]memEntry)
	collFor := func(name string) map[string]memEntry {
		if c, ok := staged[name]; ok {
			return c
		}
		src := m.colls[name]
		c := make(map[string]memEntry, len(src))
		for k, v := range src {
			c[k] = v
		}
		staged[name] = c
		return c
	}
	seq := m.seq

	for _, op := range ops {
		c := collFor(op.coll)
		switch op.kind {
		case opSet:
			data, err := canonical(op.data)
			if err != nil {
				return err
			}
			e, exists := c[op.id]
			if !exists {
				seq++
				e.seq = seq
			}
			e.data = data
			c[op.id] = e

		case opUpdate:
			patch, err := canonical(op.data)
			if err != nil {
				return err
			}
			e, exists := c[op.id]
			if !exists {
				if !op.upsert {
					return fmt.Errorf("%w: %s/%s", ErrNotFound, op.coll, op.id)
				}
				seq++
				e = memEntry{data: bson.M{}, seq: seq}
			}
			merged := cloneMap(e.data)
			for k, v := range patch {
				merged[k] = v
			}
			e.data = merged
			c[op.id] = e

		case opAppend:
			e, exists := c[op.id]
			if !exists {
				return fmt.Errorf("%w: %s/%s", ErrNotFound, op.coll, op.id)
			}
			vals, err := canonicalValues(op.values)
			if err != nil {
				return err
			}
			merged := cloneMap(e.data)
			var arr bson.A
			switch cur := merged[op.field].(type) {
			case nil:
			case bson.A:
				arr = append(bson.A(nil), cur...)
			default:
				return fmt.Errorf("docstore: append to non-array field %q of %s/%s", op.field, op.coll, op.id)
			}
			merged[op.field] = append(arr, vals...)
			e.data = merged
			c[op.id] = e

		case opDelete:
			delete(c, op.id)
		}
	}

	for name, c := range staged {
		m.colls[name] = c
	}
	m.seq = seq
	if isBatch {
		m.commits++
	}
	return nil
}
