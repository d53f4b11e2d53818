package domain_test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pba-bank/backoffice/internal/domain"
)

// fakeStore is an in-memory implementation of every repository interface
// plus the transaction manager, used by the service unit tests. A
// transaction snapshots all state up front and restores it when the
// function fails, so rollback behavior matches the real store. The
// transaction mutex also serializes concurrent transactions.
type fakeStore struct {
	mu sync.Mutex

	nextCustomerID int64
	customers      map[int64]domain.Customer
	accounts       map[int64]domain.Account
	deposits       map[int64]domain.DepositAccount
	loans          map[int64]domain.Loan
	entries        []domain.LedgerEntry
	nextSeq        int64

	studentDetails  map[int64]domain.StudentLoanDetail
	homeDetails     map[int64]domain.HomeLoanDetail
	personalDetails map[int64]bool

	// createAccountFailures makes the next N account creations collide,
	// for exercising the unique-number retry loop.
	createAccountFailures int

	// createAccountCalls counts account creation attempts.
	createAccountCalls int

	// failAppend makes ledger appends fail, for rollback tests.
	failAppend bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers:       make(map[int64]domain.Customer),
		accounts:        make(map[int64]domain.Account),
		deposits:        make(map[int64]domain.DepositAccount),
		loans:           make(map[int64]domain.Loan),
		studentDetails:  make(map[int64]domain.StudentLoanDetail),
		homeDetails:     make(map[int64]domain.HomeLoanDetail),
		personalDetails: make(map[int64]bool),
	}
}

type fakeSnapshot struct {
	customers map[int64]domain.Customer
	accounts  map[int64]domain.Account
	deposits  map[int64]domain.DepositAccount
	loans     map[int64]domain.Loan
	entries   []domain.LedgerEntry
	nextSeq   int64
}

func (s *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		customers: make(map[int64]domain.Customer, len(s.customers)),
		accounts:  make(map[int64]domain.Account, len(s.accounts)),
		deposits:  make(map[int64]domain.DepositAccount, len(s.deposits)),
		loans:     make(map[int64]domain.Loan, len(s.loans)),
		entries:   append([]domain.LedgerEntry(nil), s.entries...),
		nextSeq:   s.nextSeq,
	}
	for k, v := range s.customers {
		snap.customers[k] = v
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.deposits {
		snap.deposits[k] = v
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.customers = snap.customers
	s.accounts = snap.accounts
	s.deposits = snap.deposits
	s.loans = snap.loans
	s.entries = snap.entries
	s.nextSeq = snap.nextSeq
}

// WithTransaction implements domain.TransactionManager.
func (s *fakeStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// --- CustomerRepository ---

func (s *fakeStore) Create(ctx context.Context, customer *domain.Customer) error {
	for _, existing := range s.customers {
		if existing.Email == customer.Email {
			return domain.ErrEmailTaken
		}
	}
	s.nextCustomerID++
	customer.ID = s.nextCustomerID
	s.customers[customer.ID] = *customer
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &customer, nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	for _, customer := range s.customers {
		if customer.Email == email {
			c := customer
			return &c, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

// --- repository views -------------------------------------------------
//
// The fake keys everything off one struct; the views below give each
// repository interface its own receiver so method sets don't collide.

type fakeAccounts struct{ *fakeStore }
type fakeDeposits struct{ *fakeStore }
type fakeLoans struct{ *fakeStore }
type fakeLedger struct{ *fakeStore }

// --- AccountRepository ---

func (s fakeAccounts) Create(ctx context.Context, account *domain.Account) error {
	s.fakeStore.createAccountCalls++
	if s.createAccountFailures > 0 {
		s.fakeStore.createAccountFailures--
		return domain.ErrAccountNumberTaken
	}
	if _, ok := s.accounts[account.Number]; ok {
		return domain.ErrAccountNumberTaken
	}
	for _, existing := range s.accounts {
		if existing.CustomerID == account.CustomerID && existing.Type == account.Type {
			return domain.ErrAccountTypeTaken
		}
	}
	s.accounts[account.Number] = *account
	return nil
}

func (s fakeAccounts) GetByNumber(ctx context.Context, number int64) (*domain.Account, error) {
	account, ok := s.accounts[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (s fakeAccounts) GetByCustomerAndType(ctx context.Context, customerID int64, accountType domain.AccountType) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.CustomerID == customerID && account.Type == accountType {
			a := account
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s fakeAccounts) ListForCustomer(ctx context.Context, customerID int64) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, account := range s.accounts {
		if account.CustomerID == customerID {
			a := account
			out = append(out, &a)
		}
	}
	return out, nil
}

func (s fakeAccounts) SetStatus(ctx context.Context, number int64, status domain.AccountStatus) error {
	account, ok := s.accounts[number]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Status = status
	s.accounts[number] = account
	return nil
}

// --- DepositRepository ---

func (s fakeDeposits) Create(ctx context.Context, deposit *domain.DepositAccount) error {
	s.deposits[deposit.Number] = *deposit
	return nil
}

func (s fakeDeposits) Get(ctx context.Context, accountType domain.AccountType, number int64) (*domain.DepositAccount, error) {
	deposit, ok := s.deposits[number]
	if !ok || deposit.Type != accountType {
		return nil, domain.ErrAccountNotFound
	}
	return &deposit, nil
}

func (s fakeDeposits) Lock(ctx context.Context, accountType domain.AccountType, number int64) (*domain.DepositAccount, error) {
	return s.Get(ctx, accountType, number)
}

func (s fakeDeposits) UpdateBalance(ctx context.Context, accountType domain.AccountType, number int64, balance decimal.Decimal) error {
	deposit, ok := s.deposits[number]
	if !ok || deposit.Type != accountType {
		return domain.ErrAccountNotFound
	}
	deposit.Balance = balance
	s.deposits[number] = deposit
	return nil
}

// --- LoanRepository ---

func (s fakeLoans) Create(ctx context.Context, loan *domain.Loan) error {
	s.loans[loan.Number] = *loan
	return nil
}

func (s fakeLoans) CreateStudentDetail(ctx context.Context, detail *domain.StudentLoanDetail) error {
	s.studentDetails[detail.Number] = *detail
	return nil
}

func (s fakeLoans) CreateHomeDetail(ctx context.Context, detail *domain.HomeLoanDetail) error {
	s.homeDetails[detail.Number] = *detail
	return nil
}

func (s fakeLoans) CreatePersonalDetail(ctx context.Context, number int64) error {
	s.personalDetails[number] = true
	return nil
}

func (s fakeLoans) Get(ctx context.Context, number int64) (*domain.Loan, error) {
	loan, ok := s.loans[number]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return &loan, nil
}

func (s fakeLoans) Lock(ctx context.Context, number int64) (*domain.Loan, error) {
	return s.Get(ctx, number)
}

func (s fakeLoans) UpdatePayment(ctx context.Context, number int64, payment decimal.Decimal) error {
	loan, ok := s.loans[number]
	if !ok {
		return domain.ErrLoanNotFound
	}
	loan.Payment = payment
	s.loans[number] = loan
	return nil
}

// --- LedgerRepository ---

func (s fakeLedger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	if s.failAppend {
		return context.DeadlineExceeded
	}
	s.fakeStore.nextSeq++
	entry.Seq = s.fakeStore.nextSeq
	s.fakeStore.entries = append(s.fakeStore.entries, *entry)
	return nil
}

func (s fakeLedger) RecentForAccount(ctx context.Context, number int64, limit int) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].FromAccount == number || s.entries[i].ToAccount == number {
			e := s.entries[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

// --- test data helpers ---

func (s *fakeStore) addCustomer(id int64) {
	s.customers[id] = domain.Customer{ID: id, FirstName: "Test", LastName: "Customer"}
	if id > s.nextCustomerID {
		s.nextCustomerID = id
	}
}

func (s *fakeStore) addDepositAccount(number, customerID int64, accountType domain.AccountType, status domain.AccountStatus, balance string) {
	s.accounts[number] = domain.Account{
		Number:     number,
		CustomerID: customerID,
		Type:       accountType,
		Status:     status,
	}
	s.deposits[number] = domain.DepositAccount{
		Number:  number,
		Type:    accountType,
		Balance: decimal.RequireFromString(balance),
	}
}

func (s *fakeStore) addLoan(number, customerID int64, loanType domain.AccountType, amount, payment string) {
	s.accounts[number] = domain.Account{
		Number:     number,
		CustomerID: customerID,
		Type:       loanType,
		Status:     domain.AccountStatusApproved,
	}
	s.loans[number] = domain.Loan{
		Number:  number,
		Type:    loanType,
		Amount:  decimal.RequireFromString(amount),
		Payment: decimal.RequireFromString(payment),
	}
}

func (s *fakeStore) balance(number int64) string {
	return s.deposits[number].Balance.StringFixed(2)
}
