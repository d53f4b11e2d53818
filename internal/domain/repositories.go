package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	// Create persists a new customer and assigns its id.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, customer *Customer) error

	// GetByID retrieves a customer by id. Returns ErrCustomerNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Customer, error)

	// GetByEmail retrieves a customer by email. Returns ErrCustomerNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*Customer, error)
}

// AccountRepository defines data access for account records. Status and
// ownership live here; balances live in the deposit and loan stores.
type AccountRepository interface {
	// Create persists a new account. Returns ErrAccountNumberTaken if the
	// number collides with an existing account.
	Create(ctx context.Context, account *Account) error

	// GetByNumber retrieves an account by its number.
	// Returns ErrAccountNotFound if absent.
	GetByNumber(ctx context.Context, number int64) (*Account, error)

	// GetByCustomerAndType resolves the customer's single account of the
	// given type. Returns ErrAccountNotFound if absent.
	GetByCustomerAndType(ctx context.Context, customerID int64, accountType AccountType) (*Account, error)

	// ListForCustomer returns all accounts owned by the customer.
	ListForCustomer(ctx context.Context, customerID int64) ([]*Account, error)

	// SetStatus updates the lifecycle status of an account.
	SetStatus(ctx context.Context, number int64, status AccountStatus) error
}

// DepositRepository defines data access for checking/savings balance
// holders. The account type selects the backing table.
type DepositRepository interface {
	// Create persists a new balance holder.
	Create(ctx context.Context, deposit *DepositAccount) error

	// Get reads the balance holder without taking an exclusive lock.
	Get(ctx context.Context, accountType AccountType, number int64) (*DepositAccount, error)

	// Lock reads the balance holder under an exclusive row lock held until
	// the enclosing transaction ends. Must be called within a transaction.
	// Returns ErrBusy if the lock cannot be acquired within the store's
	// lock-wait timeout.
	Lock(ctx context.Context, accountType AccountType, number int64) (*DepositAccount, error)

	// UpdateBalance sets the balance of a holder.
	UpdateBalance(ctx context.Context, accountType AccountType, number int64, balance decimal.Decimal) error
}

// LoanRepository defines data access for loans and their subtype details.
type LoanRepository interface {
	// Create persists a new loan record.
	Create(ctx context.Context, loan *Loan) error

	// CreateStudentDetail persists the student-loan specific record.
	CreateStudentDetail(ctx context.Context, detail *StudentLoanDetail) error

	// CreateHomeDetail persists the home-loan specific record.
	CreateHomeDetail(ctx context.Context, detail *HomeLoanDetail) error

	// CreatePersonalDetail persists the personal-loan marker record.
	CreatePersonalDetail(ctx context.Context, number int64) error

	// Get reads a loan without taking an exclusive lock.
	// Returns ErrLoanNotFound if absent.
	Get(ctx context.Context, number int64) (*Loan, error)

	// Lock reads a loan under an exclusive row lock held until the enclosing
	// transaction ends. Returns ErrLoanNotFound if absent, ErrBusy on
	// lock-wait timeout.
	Lock(ctx context.Context, number int64) (*Loan, error)

	// UpdatePayment sets the cumulative payment received for a loan.
	UpdatePayment(ctx context.Context, number int64, payment decimal.Decimal) error
}

// LedgerRepository defines access to the append-only transaction ledger.
type LedgerRepository interface {
	// Append persists a new ledger entry and assigns its insertion sequence.
	Append(ctx context.Context, entry *LedgerEntry) error

	// RecentForAccount returns up to limit entries touching the account on
	// either side, newest first by insertion order.
	RecentForAccount(ctx context.Context, number int64, limit int) ([]*LedgerEntry, error)
}

// TransactionManager executes a function within one atomic transaction.
// If the function returns an error the transaction is rolled back,
// otherwise it is committed.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CardCharger is the external payment gateway capability used to originate
// funds before they enter the ledger as a deposit.
type CardCharger interface {
	// ChargeCard charges the referenced payment method for the given amount
	// in cents. Returns ErrPaymentDeclined if the gateway declines.
	ChargeCard(ctx context.Context, paymentMethodRef string, amountCents int64) error
}

// MovementPublisher publishes committed ledger movements to external
// systems. Pass nil where no events should be emitted.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, entry *LedgerEntry) error
}
