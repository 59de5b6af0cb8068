package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/payinit/internal/domain"
	"github.com/punchamoorthee/payinit/internal/ledger"
)

func newMemory(t *testing.T) ledger.Ledger {
	t.Helper()
	return ledger.NewMemory()
}

func newBolt(t *testing.T) ledger.Ledger {
	t.Helper()
	dir := t.TempDir()
	s, err := ledger.NewBolt(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs a subtest against every ledger implementation that can be
// exercised without an external database.
func backends(t *testing.T, fn func(t *testing.T, l ledger.Ledger)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) { fn(t, newMemory(t)) })
	t.Run("bolt", func(t *testing.T) { fn(t, newBolt(t)) })
}

func record(reference string) domain.TransactionRecord {
	now := time.Now().UTC()
	return domain.TransactionRecord{
		Reference:   reference,
		Amount:      decimal.RequireFromString("100"),
		Currency:    "ETB",
		Email:       "payer@example.com",
		Status:      domain.StatusInitiated,
		RequestedAt: now,
		UpdatedAt:   now,
		Fee:         decimal.RequireFromString("3"),
		History: []domain.StatusEntry{{
			Status: domain.StatusInitiated,
			At:     now,
			Detail: "transaction accepted",
		}},
	}
}

func TestTryInsertRejectsDuplicate(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		ctx := context.Background()
		first := record("TX-1")

		if err := l.TryInsert(ctx, first); err != nil {
			t.Fatalf("unexpected error on first insert: %v", err)
		}

		// Second insert with the same reference must fail and leave the
		// original untouched.
		second := record("TX-1")
		second.Email = "other@example.com"
		if err := l.TryInsert(ctx, second); !errors.Is(err, ledger.ErrDuplicateReference) {
			t.Fatalf("expected ErrDuplicateReference, got %v", err)
		}

		got, err := l.Get(ctx, "TX-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Email != "payer@example.com" {
			t.Fatalf("original record was overwritten: %+v", got)
		}
	})
}

func TestGetNotFound(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		if _, err := l.Get(context.Background(), "missing"); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReplaceAppendsHistory(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		ctx := context.Background()
		if err := l.TryInsert(ctx, record("TX-2")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		updated, err := l.Replace(ctx, "TX-2", func(cur domain.TransactionRecord) domain.TransactionRecord {
			cur.Status = domain.StatusPending
			cur.History = append(cur.History, domain.StatusEntry{
				Status: domain.StatusPending,
				At:     time.Now().UTC(),
			})
			return cur
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != domain.StatusPending {
			t.Fatalf("expected pending, got %s", updated.Status)
		}
		if len(updated.History) != 2 {
			t.Fatalf("expected 2 history entries, got %d", len(updated.History))
		}

		got, err := l.Get(ctx, "TX-2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != domain.StatusPending || len(got.History) != 2 {
			t.Fatalf("replace was not persisted: %+v", got)
		}
		if got.History[0].Status != domain.StatusInitiated {
			t.Fatal("history order changed")
		}
	})
}

func TestReplaceNotFound(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		_, err := l.Replace(context.Background(), "missing", func(cur domain.TransactionRecord) domain.TransactionRecord {
			return cur
		})
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestConcurrentInsertSameReference(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		ctx := context.Background()
		const workers = 16

		var wg sync.WaitGroup
		var inserted, rejected int64
		var mu sync.Mutex

		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				err := l.TryInsert(ctx, record("TX-RACE"))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					inserted++
				} else if errors.Is(err, ledger.ErrDuplicateReference) {
					rejected++
				}
			}()
		}
		wg.Wait()

		if inserted != 1 {
			t.Fatalf("expected exactly 1 successful insert, got %d", inserted)
		}
		if rejected != workers-1 {
			t.Fatalf("expected %d rejections, got %d", workers-1, rejected)
		}
	})
}

func TestConcurrentReplaceKeepsEveryAppend(t *testing.T) {
	backends(t, func(t *testing.T, l ledger.Ledger) {
		ctx := context.Background()
		if err := l.TryInsert(ctx, record("TX-APPEND")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		const workers = 8
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			i := i
			go func() {
				defer wg.Done()
				_, err := l.Replace(ctx, "TX-APPEND", func(cur domain.TransactionRecord) domain.TransactionRecord {
					cur.History = append(cur.History, domain.StatusEntry{
						Status: cur.Status,
						At:     time.Now().UTC(),
						Detail: fmt.Sprintf("worker-%d", i),
					})
					return cur
				})
				if err != nil {
					t.Errorf("replace failed: %v", err)
				}
			}()
		}
		wg.Wait()

		got, err := l.Get(ctx, "TX-APPEND")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.History) != workers+1 {
			t.Fatalf("lost appends: expected %d history entries, got %d", workers+1, len(got.History))
		}
	})
}

func TestMemoryReturnsDetachedCopies(t *testing.T) {
	l := newMemory(t)
	ctx := context.Background()
	if err := l.TryInsert(ctx, record("TX-COPY")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := l.Get(ctx, "TX-COPY")
	got.History[0].Detail = "mutated outside the ledger"

	again, _ := l.Get(ctx, "TX-COPY")
	if again.History[0].Detail != "transaction accepted" {
		t.Fatal("stored record aliased a returned copy")
	}
}
