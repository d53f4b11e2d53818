package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransferService handles the business logic for inter-account transfers.
// It coordinates the account, deposit and ledger stores and ensures
// transactional consistency.
type TransferService struct {
	accounts  AccountRepository
	deposits  DepositRepository
	ledger    LedgerRepository
	txManager TransactionManager
	publisher MovementPublisher
	logger    *zap.Logger
}

// NewTransferService creates a TransferService. Pass nil for publisher if
// no events should be emitted.
func NewTransferService(
	accounts AccountRepository,
	deposits DepositRepository,
	ledger LedgerRepository,
	txManager TransactionManager,
	publisher MovementPublisher,
	logger *zap.Logger,
) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		accounts:  accounts,
		deposits:  deposits,
		ledger:    ledger,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// Transfer moves amount from the customer's account of the given type to
// the destination account number. The operation is executed atomically:
//
//  1. Resolve both accounts.
//  2. Lock both balance rows in ascending account-number order, so two
//     concurrent transfers over the same pair in opposite directions can
//     never deadlock.
//  3. Reject if either account is still pending approval.
//  4. Reject if the source balance is lower than the amount.
//  5. Debit source, credit destination, append one ledger entry.
//
// Any failure rolls the whole transaction back; no partial balance
// mutation is ever observable. Returns the committed ledger entry.
func (s *TransferService) Transfer(
	ctx context.Context,
	fromCustomerID int64,
	fromAccountType AccountType,
	toAccountNumber int64,
	amount decimal.Decimal,
) (*LedgerEntry, error) {
	if fromCustomerID <= 0 {
		return nil, fmt.Errorf("%w: missing from customer id", ErrInvalidRequest)
	}
	if toAccountNumber <= 0 {
		return nil, fmt.Errorf("%w: missing destination account number", ErrInvalidRequest)
	}
	if !fromAccountType.IsDeposit() {
		return nil, ErrNotDepositAccount
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	var entry *LedgerEntry
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		source, err := s.accounts.GetByCustomerAndType(txCtx, fromCustomerID, fromAccountType)
		if err != nil {
			return fmt.Errorf("resolve source account: %w", err)
		}

		destination, err := s.accounts.GetByNumber(txCtx, toAccountNumber)
		if err != nil {
			return fmt.Errorf("resolve destination account: %w", err)
		}
		if source.Number == destination.Number {
			return ErrSameAccount
		}
		if !destination.Type.IsDeposit() {
			return ErrNotDepositAccount
		}

		// Canonical lock order: ascending account number, regardless of
		// which side is the source.
		first, second := source, destination
		if second.Number < first.Number {
			first, second = second, first
		}

		firstBalance, err := s.deposits.Lock(txCtx, first.Type, first.Number)
		if err != nil {
			return fmt.Errorf("lock account %d: %w", first.Number, err)
		}
		secondBalance, err := s.deposits.Lock(txCtx, second.Type, second.Number)
		if err != nil {
			return fmt.Errorf("lock account %d: %w", second.Number, err)
		}

		sourceBalance, destinationBalance := firstBalance, secondBalance
		if sourceBalance.Number != source.Number {
			sourceBalance, destinationBalance = secondBalance, firstBalance
		}

		if !source.Approved() || !destination.Approved() {
			return ErrAccountNotApproved
		}
		if sourceBalance.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if err := s.deposits.UpdateBalance(txCtx, source.Type, source.Number, sourceBalance.Balance.Sub(amount)); err != nil {
			return fmt.Errorf("debit source account: %w", err)
		}
		if err := s.deposits.UpdateBalance(txCtx, destination.Type, destination.Number, destinationBalance.Balance.Add(amount)); err != nil {
			return fmt.Errorf("credit destination account: %w", err)
		}

		entry = NewLedgerEntry(source.Number, destination.Number, amount)
		if err := s.ledger.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMovement(entry)
	return entry, nil
}

// publishMovement emits the committed entry asynchronously, best-effort.
// The transfer is already committed, so a transient broker failure must
// not make it appear to fail.
func (s *TransferService) publishMovement(entry *LedgerEntry) {
	if s.publisher == nil {
		return
	}
	go func(e *LedgerEntry) {
		if err := s.publisher.PublishMovement(context.Background(), e); err != nil {
			s.logger.Warn("failed to publish movement event",
				zap.String("entry_id", e.ID.String()),
				zap.Error(err),
			)
		}
	}(entry)
}
