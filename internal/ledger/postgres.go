package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchamoorthee/payinit/internal/domain"
)

// Postgres is the durable backend. The record is stored as a JSONB document
// keyed by reference; the primary key carries the insert-if-absent
// guarantee and SELECT ... FOR UPDATE gives same-key exclusion for Replace.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) TryInsert(ctx context.Context, rec domain.TransactionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("record marshal failed: %w", err)
	}

	tag, err := p.pool.Exec(ctx,
		"INSERT INTO transactions (reference, record) VALUES ($1, $2) ON CONFLICT (reference) DO NOTHING",
		rec.Reference, data,
	)
	if err != nil {
		return fmt.Errorf("record insert failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateReference
	}
	return nil
}

func (p *Postgres) Replace(ctx context.Context, reference string, update Updater) (domain.TransactionRecord, error) {
	var out domain.TransactionRecord

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return out, fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx,
		"SELECT record FROM transactions WHERE reference = $1 FOR UPDATE",
		reference,
	).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrNotFound
		}
		return out, fmt.Errorf("record lock failed: %w", err)
	}

	var cur domain.TransactionRecord
	if err := json.Unmarshal(data, &cur); err != nil {
		return out, fmt.Errorf("record unmarshal failed: %w", err)
	}

	out = update(cur)
	next, err := json.Marshal(out)
	if err != nil {
		return out, fmt.Errorf("record marshal failed: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE transactions SET record = $1, updated_at = now() WHERE reference = $2",
		next, reference,
	); err != nil {
		return out, fmt.Errorf("record update failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return out, fmt.Errorf("tx commit failed: %w", err)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, reference string) (domain.TransactionRecord, error) {
	var rec domain.TransactionRecord
	var data []byte
	err := p.pool.QueryRow(ctx,
		"SELECT record FROM transactions WHERE reference = $1",
		reference,
	).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return rec, ErrNotFound
		}
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("record unmarshal failed: %w", err)
	}
	return rec, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
