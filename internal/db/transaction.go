package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pba-bank/backoffice/internal/domain"
)

// txKey is the key type for storing the transaction in context.
type txKey struct{}

// defaultLockTimeout bounds how long a transaction waits on a row lock
// before the operation is rolled back and reported as retryable.
const defaultLockTimeout = 3 * time.Second

// TransactionManager implements domain.TransactionManager using
// PostgreSQL. Every transaction it opens runs with a lock_timeout, so a
// contended row lock surfaces as domain.ErrBusy instead of blocking
// indefinitely.
type TransactionManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTransactionManager creates a TransactionManager. A non-positive
// lockTimeout falls back to the default.
func NewTransactionManager(pool *pgxpool.Pool, lockTimeout time.Duration) *TransactionManager {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &TransactionManager{
		pool:        pool,
		lockTimeout: lockTimeout,
	}
}

// WithTransaction executes fn within a database transaction. If fn returns
// an error the transaction is rolled back, otherwise it is committed. The
// transaction is stored in the context so the repositories pick it up.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		// Rollback is a no-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	// SET LOCAL scopes the timeout to this transaction only.
	timeoutMs := tm.lockTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeoutMs)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		return translateError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// getTx retrieves the transaction from context, or nil if absent.
func getTx(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// querier is the subset of pgx.Tx and *pgxpool.Pool the repositories use.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// q returns the transaction from context if one is open, otherwise the
// pool, so repository methods work both inside and outside a transaction.
func q(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := getTx(ctx); tx != nil {
		return tx
	}
	return pool
}

// translateError maps lock-wait timeouts to domain.ErrBusy and leaves
// everything else intact.
func translateError(err error) error {
	if isLockTimeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrBusy, err)
	}
	return err
}
