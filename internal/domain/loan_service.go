package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoanService handles payments against loan accounts.
type LoanService struct {
	accounts  AccountRepository
	deposits  DepositRepository
	loans     LoanRepository
	ledger    LedgerRepository
	txManager TransactionManager
	publisher MovementPublisher
	logger    *zap.Logger
}

// NewLoanService creates a LoanService. Pass nil for publisher if no
// events should be emitted.
func NewLoanService(
	accounts AccountRepository,
	deposits DepositRepository,
	loans LoanRepository,
	ledger LedgerRepository,
	txManager TransactionManager,
	publisher MovementPublisher,
	logger *zap.Logger,
) *LoanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoanService{
		accounts:  accounts,
		deposits:  deposits,
		loans:     loans,
		ledger:    ledger,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// PayLoan moves amount from the paying customer's checking or savings
// account to the loan's cumulative payment counter, atomically.
//
// Lock order is loan row first, then the paying balance row. Loan numbers
// and deposit-account numbers are disjoint sets and every caller uses the
// same order, so no lock cycle is possible.
//
// The payment is not capped to the outstanding principal: paying more than
// the remaining balance drives it negative, and that negative remainder is
// returned. A loan whose payments already cover the principal rejects
// further payments with ErrLoanAlreadyPaid.
func (s *LoanService) PayLoan(
	ctx context.Context,
	loanAccountNumber int64,
	payingCustomerID int64,
	payingAccountType AccountType,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	if loanAccountNumber <= 0 {
		return decimal.Zero, fmt.Errorf("%w: missing loan account number", ErrInvalidRequest)
	}
	if payingCustomerID <= 0 {
		return decimal.Zero, fmt.Errorf("%w: missing paying customer id", ErrInvalidRequest)
	}
	if !payingAccountType.IsDeposit() {
		return decimal.Zero, ErrNotDepositAccount
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	var remaining decimal.Decimal
	var entry *LedgerEntry
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		loan, err := s.loans.Lock(txCtx, loanAccountNumber)
		if err != nil {
			return fmt.Errorf("lock loan %d: %w", loanAccountNumber, err)
		}
		if loan.FullyPaid() {
			return ErrLoanAlreadyPaid
		}

		paying, err := s.accounts.GetByCustomerAndType(txCtx, payingCustomerID, payingAccountType)
		if err != nil {
			return fmt.Errorf("resolve paying account: %w", err)
		}

		balance, err := s.deposits.Lock(txCtx, paying.Type, paying.Number)
		if err != nil {
			return fmt.Errorf("lock account %d: %w", paying.Number, err)
		}
		if balance.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if err := s.deposits.UpdateBalance(txCtx, paying.Type, paying.Number, balance.Balance.Sub(amount)); err != nil {
			return fmt.Errorf("debit paying account: %w", err)
		}

		payment := loan.Payment.Add(amount)
		if err := s.loans.UpdatePayment(txCtx, loan.Number, payment); err != nil {
			return fmt.Errorf("update loan payment: %w", err)
		}
		remaining = loan.Amount.Sub(payment)

		entry = NewLedgerEntry(paying.Number, loan.Number, amount)
		if err := s.ledger.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
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
	return remaining, nil
}
