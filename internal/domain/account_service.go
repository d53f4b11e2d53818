package domain

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds the retry loop when a randomly generated
// account number collides with an existing one.
const maxNumberAttempts = 100

// OpenAccountRequest carries the parameters for opening an account.
// LoanAmount, LoanRate and LoanMonths apply to loan types; Rate carries
// the service charge (checking) or interest rate (savings) for deposit
// types. Student and Home are the subtype details for the matching loan
// types.
type OpenAccountRequest struct {
	CustomerID int64
	Type       AccountType
	HolderName string
	Street     string
	City       string
	State      string
	Zip        int

	Rate       float64
	LoanAmount decimal.Decimal
	LoanRate   float64
	LoanMonths int
	Student    *StudentLoanDetail
	Home       *HomeLoanDetail
}

// AccountService handles account opening, the approval workflow and
// externally funded deposits.
type AccountService struct {
	customers CustomerRepository
	accounts  AccountRepository
	deposits  DepositRepository
	loans     LoanRepository
	ledger    LedgerRepository
	txManager TransactionManager
	charger   CardCharger
	publisher MovementPublisher
	logger    *zap.Logger
}

// NewAccountService creates an AccountService. Pass nil for publisher if
// no events should be emitted.
func NewAccountService(
	customers CustomerRepository,
	accounts AccountRepository,
	deposits DepositRepository,
	loans LoanRepository,
	ledger LedgerRepository,
	txManager TransactionManager,
	charger CardCharger,
	publisher MovementPublisher,
	logger *zap.Logger,
) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		customers: customers,
		accounts:  accounts,
		deposits:  deposits,
		loans:     loans,
		ledger:    ledger,
		txManager: txManager,
		charger:   charger,
		publisher: publisher,
		logger:    logger,
	}
}

// Open creates a new pending account with a unique 8-digit number and the
// sub-record matching its type. Deposit accounts open with the fixed
// opening balance; loans start with zero payments received.
func (s *AccountService) Open(ctx context.Context, req OpenAccountRequest) (*Account, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidRequest, req.Type)
	}
	if _, err := s.customers.GetByID(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if req.Type.IsLoan() {
		if err := ValidateAmount(req.LoanAmount); err != nil {
			return nil, fmt.Errorf("loan amount: %w", err)
		}
	}

	var account *Account
	// A random number can collide with an existing account; retry with a
	// fresh one, bounded.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		account = &Account{
			Number:     newAccountNumber(),
			CustomerID: req.CustomerID,
			Type:       req.Type,
			Status:     AccountStatusPending,
			HolderName: req.HolderName,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			Zip:        req.Zip,
		}

		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.accounts.Create(txCtx, account); err != nil {
				return err
			}
			return s.createSubRecord(txCtx, account, req)
		})
		if errors.Is(err, ErrAccountNumberTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return account, nil
	}
	return nil, fmt.Errorf("could not allocate a unique account number: %w", ErrAccountNumberTaken)
}

// createSubRecord creates the balance holder or loan rows for the new
// account, inside the same transaction as the account row.
func (s *AccountService) createSubRecord(ctx context.Context, account *Account, req OpenAccountRequest) error {
	if account.Type.IsDeposit() {
		return s.deposits.Create(ctx, &DepositAccount{
			Number:  account.Number,
			Type:    account.Type,
			Balance: OpeningBalance,
			Rate:    req.Rate,
		})
	}

	loan := &Loan{
		Number:  account.Number,
		Type:    account.Type,
		Rate:    req.LoanRate,
		Amount:  req.LoanAmount,
		Payment: decimal.Zero,
		Months:  req.LoanMonths,
	}
	if err := s.loans.Create(ctx, loan); err != nil {
		return err
	}

	switch account.Type {
	case AccountTypeStudentLoan:
		if req.Student == nil {
			return fmt.Errorf("%w: student loan requires student detail", ErrInvalidRequest)
		}
		detail := *req.Student
		detail.Number = account.Number
		return s.loans.CreateStudentDetail(ctx, &detail)
	case AccountTypeHomeLoan:
		if req.Home == nil {
			return fmt.Errorf("%w: home loan requires home detail", ErrInvalidRequest)
		}
		detail := *req.Home
		detail.Number = account.Number
		return s.loans.CreateHomeDetail(ctx, &detail)
	case AccountTypePersonalLoan:
		return s.loans.CreatePersonalDetail(ctx, account.Number)
	}
	return nil
}

// Approve moves a pending account to approved. Approving an already
// approved account is a no-op returning the current state.
func (s *AccountService) Approve(ctx context.Context, number int64) (*Account, error) {
	account, err := s.accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if account.Approved() {
		return account, nil
	}
	if err := s.accounts.SetStatus(ctx, number, AccountStatusApproved); err != nil {
		return nil, err
	}
	account.Status = AccountStatusApproved
	return account, nil
}

// Deposit originates external funds: the payment gateway charges the card,
// then the balance credit and the ledger entry commit atomically. The
// ledger entry records the account number on both sides, marking it as an
// external-funding deposit.
func (s *AccountService) Deposit(
	ctx context.Context,
	customerID int64,
	accountType AccountType,
	paymentMethodRef string,
	amount decimal.Decimal,
) (*LedgerEntry, error) {
	if !accountType.IsDeposit() {
		return nil, ErrNotDepositAccount
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if paymentMethodRef == "" {
		return nil, fmt.Errorf("%w: missing payment method", ErrInvalidRequest)
	}

	account, err := s.accounts.GetByCustomerAndType(ctx, customerID, accountType)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if !account.Approved() {
		return nil, ErrAccountNotApproved
	}

	if err := s.charger.ChargeCard(ctx, paymentMethodRef, AmountToCents(amount)); err != nil {
		return nil, fmt.Errorf("charge card: %w", err)
	}

	var entry *LedgerEntry
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		balance, err := s.deposits.Lock(txCtx, account.Type, account.Number)
		if err != nil {
			return fmt.Errorf("lock account %d: %w", account.Number, err)
		}
		if err := s.deposits.UpdateBalance(txCtx, account.Type, account.Number, balance.Balance.Add(amount)); err != nil {
			return fmt.Errorf("credit account: %w", err)
		}
		entry = NewLedgerEntry(account.Number, account.Number, amount)
		if err := s.ledger.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		// The card was already charged; the charge now has no matching
		// credit or ledger entry and must be reconciled by hand.
		s.logger.Error("card charged but deposit transaction failed",
			zap.String("payment_method", paymentMethodRef),
			zap.Int64("account", account.Number),
			zap.Int64("amount_cents", AmountToCents(amount)),
			zap.Error(err),
		)
		return nil, err
	}

	if s.publisher != nil {
		go func(e *LedgerEntry) {
			if err := s.publisher.PublishMovement(context.Background(), e); err != nil {
				s.logger.Warn("failed to publish movement event",
					zap.String("entry_id", e.ID.String()),
					zap.Error(err),
				)
			}
		}(entry)
	}
	return entry, nil
}

// Get retrieves an account by number.
func (s *AccountService) Get(ctx context.Context, number int64) (*Account, error) {
	return s.accounts.GetByNumber(ctx, number)
}

// ListForCustomer returns all accounts owned by the customer.
func (s *AccountService) ListForCustomer(ctx context.Context, customerID int64) ([]*Account, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.accounts.ListForCustomer(ctx, customerID)
}

// newAccountNumber generates a random externally visible 8-digit account
// number. Uniqueness is enforced by the store; callers retry on collision.
func newAccountNumber() int64 {
	return 10000000 + rand.Int64N(90000000)
}
