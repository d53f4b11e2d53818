package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pba-bank/backoffice/internal/domain"
)

// LedgerRepository implements domain.LedgerRepository using PostgreSQL.
// The ledger is append-only: entries are inserted exactly once and never
// updated or deleted. A bigserial sequence records insertion order, which
// keeps the ordering total even when timestamps collide.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append persists a new ledger entry and fills in its assigned sequence.
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, from_account, to_account, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	err := q(ctx, r.pool).QueryRow(ctx, query,
		entry.ID,
		entry.FromAccount,
		entry.ToAccount,
		entry.Amount,
		entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// RecentForAccount returns up to limit entries touching the account on
// either side, newest first by insertion order.
func (r *LedgerRepository) RecentForAccount(ctx context.Context, number int64, limit int) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, from_account, to_account, amount, seq, created_at
		FROM ledger_entries
		WHERE from_account = $1 OR to_account = $1
		ORDER BY seq DESC
		LIMIT $2
	`

	rows, err := q(ctx, r.pool).Query(ctx, query, number, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.FromAccount,
			&entry.ToAccount,
			&entry.Amount,
			&entry.Seq,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}
	return entries, nil
}
