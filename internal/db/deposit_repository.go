package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pba-bank/backoffice/internal/domain"
)

// DepositRepository implements domain.DepositRepository using PostgreSQL.
// Checking and savings balances live in separate tables; the account type
// selects which one a query runs against.
type DepositRepository struct {
	pool *pgxpool.Pool
}

// NewDepositRepository creates a new DepositRepository.
func NewDepositRepository(pool *pgxpool.Pool) *DepositRepository {
	return &DepositRepository{pool: pool}
}

// depositTable maps a deposit account type to its table and rate column.
// The mapping is total over the balance-bearing types.
func depositTable(accountType domain.AccountType) (table, rateColumn string, err error) {
	switch accountType {
	case domain.AccountTypeChecking:
		return "checking_accounts", "service_charge", nil
	case domain.AccountTypeSavings:
		return "savings_accounts", "interest_rate", nil
	default:
		return "", "", fmt.Errorf("%w: %q", domain.ErrNotDepositAccount, accountType)
	}
}

// Create persists a new balance holder.
func (r *DepositRepository) Create(ctx context.Context, deposit *domain.DepositAccount) error {
	table, rateColumn, err := depositTable(deposit.Type)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (number, balance, %s) VALUES ($1, $2, $3)`, table, rateColumn)
	if _, err := q(ctx, r.pool).Exec(ctx, query, deposit.Number, deposit.Balance, deposit.Rate); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create %s record: %w", deposit.Type, err)
	}
	return nil
}

// Get reads the balance holder without taking an exclusive lock.
func (r *DepositRepository) Get(ctx context.Context, accountType domain.AccountType, number int64) (*domain.DepositAccount, error) {
	return r.get(ctx, accountType, number, false)
}

// Lock reads the balance holder under SELECT ... FOR UPDATE. The row lock
// is held until the enclosing transaction ends. A lock-wait timeout maps
// to domain.ErrBusy.
func (r *DepositRepository) Lock(ctx context.Context, accountType domain.AccountType, number int64) (*domain.DepositAccount, error) {
	return r.get(ctx, accountType, number, true)
}

func (r *DepositRepository) get(ctx context.Context, accountType domain.AccountType, number int64, forUpdate bool) (*domain.DepositAccount, error) {
	table, rateColumn, err := depositTable(accountType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT number, balance, %s FROM %s WHERE number = $1`, rateColumn, table)
	if forUpdate {
		query += " FOR UPDATE"
	}

	deposit := domain.DepositAccount{Type: accountType}
	err = q(ctx, r.pool).QueryRow(ctx, query, number).Scan(&deposit.Number, &deposit.Balance, &deposit.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		if isLockTimeout(err) {
			return nil, fmt.Errorf("%w: account %d", domain.ErrBusy, number)
		}
		return nil, fmt.Errorf("failed to read %s record: %w", accountType, err)
	}
	return &deposit, nil
}

// UpdateBalance sets the balance of a holder.
func (r *DepositRepository) UpdateBalance(ctx context.Context, accountType domain.AccountType, number int64, balance decimal.Decimal) error {
	table, _, err := depositTable(accountType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET balance = $2 WHERE number = $1`, table)
	tag, err := q(ctx, r.pool).Exec(ctx, query, number, balance)
	if err != nil {
		return fmt.Errorf("failed to update %s balance: %w", accountType, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
