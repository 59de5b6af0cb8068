package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/punchamoorthee/payinit/internal/domain"
)

const bucketName = "transactions"

// Bolt is the embedded single-file durable backend. Bolt serializes all
// writers, so running the insert-if-absent check and the read-modify-write
// inside one Update transaction is enough to satisfy the same-key
// exclusion requirement.
type Bolt struct {
	db *bolt.DB
}

func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

func (b *Bolt) TryInsert(ctx context.Context, rec domain.TransactionRecord) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucketName))
		if bk.Get([]byte(rec.Reference)) != nil {
			return ErrDuplicateReference
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("record marshal failed: %w", err)
		}
		return bk.Put([]byte(rec.Reference), data)
	})
}

func (b *Bolt) Replace(ctx context.Context, reference string, update Updater) (domain.TransactionRecord, error) {
	var out domain.TransactionRecord
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(bucketName))
		data := bk.Get([]byte(reference))
		if data == nil {
			return ErrNotFound
		}
		var cur domain.TransactionRecord
		if err := json.Unmarshal(data, &cur); err != nil {
			return fmt.Errorf("record unmarshal failed: %w", err)
		}
		out = update(cur)
		next, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("record marshal failed: %w", err)
		}
		return bk.Put([]byte(reference), next)
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	return out, nil
}

func (b *Bolt) Get(ctx context.Context, reference string) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(reference))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return domain.TransactionRecord{}, err
	}
	return rec, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
