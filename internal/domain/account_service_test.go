package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pba-bank/backoffice/internal/domain"
)

// fakeCharger records charge calls and optionally declines them.
type fakeCharger struct {
	decline bool
	calls   []int64
}

func (c *fakeCharger) ChargeCard(ctx context.Context, paymentMethodRef string, amountCents int64) error {
	if c.decline {
		return domain.ErrPaymentDeclined
	}
	c.calls = append(c.calls, amountCents)
	return nil
}

func newAccountService(store *fakeStore, charger domain.CardCharger) *domain.AccountService {
	return domain.NewAccountService(
		store,
		fakeAccounts{store},
		fakeDeposits{store},
		fakeLoans{store},
		fakeLedger{store},
		store,
		charger,
		nil,
		nil,
	)
}

func TestOpenAccount_Checking(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	svc := newAccountService(store, &fakeCharger{})

	account, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypeChecking,
		HolderName: "Test Customer",
		Rate:       12.50,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AccountStatusPending, account.Status)
	assert.GreaterOrEqual(t, account.Number, int64(10000000))
	assert.Less(t, account.Number, int64(100000000))

	deposit := store.deposits[account.Number]
	assert.Equal(t, "500.00", deposit.Balance.StringFixed(2))
	assert.Equal(t, 12.50, deposit.Rate)
}

func TestOpenAccount_StudentLoan(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	svc := newAccountService(store, &fakeCharger{})

	account, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypeStudentLoan,
		LoanAmount: amt("12000.00"),
		LoanRate:   4.5,
		LoanMonths: 120,
		Student: &domain.StudentLoanDetail{
			StudentID:          42,
			GraduationStatus:   "undergraduate",
			ExpectedGraduation: time.Date(2028, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	loan := store.loans[account.Number]
	assert.Equal(t, "12000.00", loan.Amount.StringFixed(2))
	assert.True(t, loan.Payment.IsZero())

	detail, ok := store.studentDetails[account.Number]
	require.True(t, ok)
	assert.Equal(t, int64(42), detail.StudentID)
}

func TestOpenAccount_StudentLoanRequiresDetail(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	svc := newAccountService(store, &fakeCharger{})

	_, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypeStudentLoan,
		LoanAmount: amt("12000.00"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Empty(t, store.loans)
	assert.Empty(t, store.accounts)
}

func TestOpenAccount_RetriesOnNumberCollision(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	store.createAccountFailures = 3
	svc := newAccountService(store, &fakeCharger{})

	account, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypeSavings,
	})
	require.NoError(t, err)
	assert.Contains(t, store.accounts, account.Number)
}

func TestOpenAccount_DuplicateTypeFailsFast(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	svc := newAccountService(store, &fakeCharger{})

	// The customer-and-type constraint cannot be satisfied by a fresh
	// number, so the collision retry loop must not eat the error.
	_, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypeChecking,
	})
	require.ErrorIs(t, err, domain.ErrAccountTypeTaken)
	assert.Equal(t, 1, store.createAccountCalls)
}

func TestOpenAccount_Invalid(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	svc := newAccountService(store, &fakeCharger{})

	_, err := svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountType("money_market"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 99,
		Type:       domain.AccountTypeChecking,
	})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	_, err = svc.Open(context.Background(), domain.OpenAccountRequest{
		CustomerID: 1,
		Type:       domain.AccountTypePersonalLoan,
		LoanAmount: amt("-100.00"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApproveAccount(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusPending, "500.00")
	svc := newAccountService(store, &fakeCharger{})

	account, err := svc.Approve(context.Background(), 10000001)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusApproved, account.Status)

	// Approving twice is a no-op.
	account, err = svc.Approve(context.Background(), 10000001)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusApproved, account.Status)

	_, err = svc.Approve(context.Background(), 99999999)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDeposit_Success(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	charger := &fakeCharger{}
	svc := newAccountService(store, charger)

	entry, err := svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "pm_123", amt("250.00"))
	require.NoError(t, err)

	assert.Equal(t, "750.00", store.balance(10000001))
	assert.Equal(t, []int64{25000}, charger.calls)

	// The entry carries the same number on both sides.
	assert.Equal(t, int64(10000001), entry.FromAccount)
	assert.Equal(t, int64(10000001), entry.ToAccount)
	require.Len(t, store.entries, 1)
}

func TestDeposit_Declined(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	svc := newAccountService(store, &fakeCharger{decline: true})

	_, err := svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "pm_123", amt("250.00"))
	require.ErrorIs(t, err, domain.ErrPaymentDeclined)

	assert.Equal(t, "500.00", store.balance(10000001))
	assert.Empty(t, store.entries)
}

func TestDeposit_LogsOrphanedChargeOnFailedTransaction(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	store.failAppend = true
	charger := &fakeCharger{}

	core, logs := observer.New(zap.ErrorLevel)
	svc := domain.NewAccountService(
		store,
		fakeAccounts{store},
		fakeDeposits{store},
		fakeLoans{store},
		fakeLedger{store},
		store,
		charger,
		nil,
		zap.New(core),
	)

	_, err := svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "pm_123", amt("250.00"))
	require.Error(t, err)

	// The charge went through but nothing was credited; the orphaned
	// charge must be logged with enough detail to reconcile it.
	assert.Equal(t, []int64{25000}, charger.calls)
	assert.Equal(t, "500.00", store.balance(10000001))
	assert.Empty(t, store.entries)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "pm_123", fields["payment_method"])
	assert.Equal(t, int64(10000001), fields["account"])
	assert.Equal(t, int64(25000), fields["amount_cents"])
}

func TestDeposit_PendingAccount(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusPending, "500.00")
	charger := &fakeCharger{}
	svc := newAccountService(store, charger)

	_, err := svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "pm_123", amt("250.00"))
	require.ErrorIs(t, err, domain.ErrAccountNotApproved)

	// The card is never charged for an unapproved account.
	assert.Empty(t, charger.calls)
	assert.Equal(t, "500.00", store.balance(10000001))
}

func TestDeposit_Invalid(t *testing.T) {
	store := newFakeStore()
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	store.addLoan(20000001, 1, domain.AccountTypePersonalLoan, "5000.00", "0.00")
	svc := newAccountService(store, &fakeCharger{})

	_, err := svc.Deposit(context.Background(), 1, domain.AccountTypePersonalLoan, "pm_123", amt("250.00"))
	require.ErrorIs(t, err, domain.ErrNotDepositAccount)

	_, err = svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "", amt("250.00"))
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = svc.Deposit(context.Background(), 1, domain.AccountTypeChecking, "pm_123", decimal.RequireFromString("10.005"))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Deposit(context.Background(), 2, domain.AccountTypeChecking, "pm_123", amt("250.00"))
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestListAccounts(t *testing.T) {
	store := newFakeStore()
	store.addCustomer(1)
	store.addDepositAccount(10000001, 1, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	store.addDepositAccount(10000002, 1, domain.AccountTypeSavings, domain.AccountStatusPending, "500.00")
	store.addDepositAccount(10000003, 2, domain.AccountTypeChecking, domain.AccountStatusApproved, "500.00")
	svc := newAccountService(store, &fakeCharger{})

	accounts, err := svc.ListForCustomer(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	_, err = svc.ListForCustomer(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
