package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pba-bank/backoffice/internal/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `number, customer_id, type, status, holder_name, street, city, state, zip, opened_at`

// Create persists a new account. New accounts always start pending.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (number, customer_id, type, status, holder_name, street, city, state, zip, opened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING opened_at
	`

	err := q(ctx, r.pool).QueryRow(ctx, query,
		account.Number,
		account.CustomerID,
		string(account.Type),
		string(account.Status),
		account.HolderName,
		account.Street,
		account.City,
		account.State,
		account.Zip,
	).Scan(&account.OpenedAt)

	if err != nil {
		// The table has two unique constraints: the number itself, which a
		// caller resolves by retrying with a fresh number, and one account
		// per customer and type, which no retry can satisfy.
		if constraint, ok := uniqueViolationConstraint(err); ok {
			if constraint == "idx_accounts_customer_type" {
				return domain.ErrAccountTypeTaken
			}
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByNumber retrieves an account by its number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE number = $1`
	return r.scanAccount(q(ctx, r.pool).QueryRow(ctx, query, number))
}

// GetByCustomerAndType resolves the customer's single account of the given type.
func (r *AccountRepository) GetByCustomerAndType(ctx context.Context, customerID int64, accountType domain.AccountType) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 AND type = $2`
	return r.scanAccount(q(ctx, r.pool).QueryRow(ctx, query, customerID, string(accountType)))
}

// ListForCustomer returns all accounts owned by the customer, oldest first.
func (r *AccountRepository) ListForCustomer(ctx context.Context, customerID int64) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE customer_id = $1 ORDER BY opened_at`

	rows, err := q(ctx, r.pool).Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// SetStatus updates the lifecycle status of an account.
func (r *AccountRepository) SetStatus(ctx context.Context, number int64, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $2 WHERE number = $1`

	tag, err := q(ctx, r.pool).Exec(ctx, query, number, string(status))
	if err != nil {
		return fmt.Errorf("failed to update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var accountType, status string

	err := row.Scan(
		&account.Number,
		&account.CustomerID,
		&accountType,
		&status,
		&account.HolderName,
		&account.Street,
		&account.City,
		&account.State,
		&account.Zip,
		&account.OpenedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Type = domain.AccountType(accountType)
	account.Status = domain.AccountStatus(status)
	return &account, nil
}
