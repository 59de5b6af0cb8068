// Package ledger is the keyed store of transaction records. It owns the
// at-most-one-record-per-reference guarantee: all mutation goes through
// TryInsert and Replace, and nothing outside this package may
// read-modify-write a record.
package ledger

import (
	"context"
	"errors"

	"github.com/punchamoorthee/payinit/internal/domain"
)

var (
	// ErrDuplicateReference is returned by TryInsert when a record already
	// exists for the reference. The existing record is left untouched.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrNotFound is returned when no record exists for the reference.
	ErrNotFound = errors.New("transaction not found")
)

// Updater transforms the current record into its next state. It must append
// to the status history, never truncate or reorder it.
type Updater func(domain.TransactionRecord) domain.TransactionRecord

// Ledger is the transaction store contract. Operations on the same
// reference are mutually exclusive; operations on distinct references do
// not block one another (backends may serialize writes more coarsely, but
// never less).
type Ledger interface {
	// TryInsert stores rec under rec.Reference if and only if no record
	// exists there yet. Returns ErrDuplicateReference otherwise.
	TryInsert(ctx context.Context, rec domain.TransactionRecord) error

	// Replace atomically applies update to the current record for reference
	// and stores the result. Returns the updated record, or ErrNotFound.
	Replace(ctx context.Context, reference string, update Updater) (domain.TransactionRecord, error)

	// Get returns the current record for reference, or ErrNotFound.
	Get(ctx context.Context, reference string) (domain.TransactionRecord, error)

	Close() error
}
