package ledger

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/punchamoorthee/payinit/internal/domain"
)

// Memory is the volatile in-process backend. Records do not survive a
// restart and are never evicted. A single mutex around the map is enough at
// this scale; the updater runs under the lock, which gives same-key
// exclusion for free.
type Memory struct {
	mu      sync.Mutex
	records map[string]domain.TransactionRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]domain.TransactionRecord)}
}

func (m *Memory) TryInsert(ctx context.Context, rec domain.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.Reference]; ok {
		return ErrDuplicateReference
	}
	m.records[rec.Reference] = clone(rec)
	return nil
}

func (m *Memory) Replace(ctx context.Context, reference string, update Updater) (domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.records[reference]
	if !ok {
		return domain.TransactionRecord{}, ErrNotFound
	}
	next := clone(update(clone(cur)))
	m.records[reference] = next
	return clone(next), nil
}

func (m *Memory) Get(ctx context.Context, reference string) (domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[reference]
	if !ok {
		return domain.TransactionRecord{}, ErrNotFound
	}
	return clone(rec), nil
}

func (m *Memory) Close() error { return nil }

// clone detaches the slice and map fields so callers can never mutate a
// stored record outside Replace.
func clone(rec domain.TransactionRecord) domain.TransactionRecord {
	rec.History = slices.Clone(rec.History)
	rec.Metadata = maps.Clone(rec.Metadata)
	rec.GatewayResponse = slices.Clone(rec.GatewayResponse)
	return rec
}
