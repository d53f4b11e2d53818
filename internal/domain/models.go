package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates the product types an account can be opened as.
// The set is closed: every value maps to exactly one sub-store
// (checking/savings balance tables or the loan tables).
type AccountType string

const (
	AccountTypeChecking     AccountType = "checking"
	AccountTypeSavings      AccountType = "savings"
	AccountTypeStudentLoan  AccountType = "student_loan"
	AccountTypePersonalLoan AccountType = "personal_loan"
	AccountTypeHomeLoan     AccountType = "home_loan"
)

// IsDeposit reports whether the type carries a mutable balance record.
func (t AccountType) IsDeposit() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// IsLoan reports whether the type is one of the loan products.
func (t AccountType) IsLoan() bool {
	return t == AccountTypeStudentLoan || t == AccountTypePersonalLoan || t == AccountTypeHomeLoan
}

// Valid reports whether the type is a member of the closed set.
func (t AccountType) Valid() bool {
	return t.IsDeposit() || t.IsLoan()
}

// AccountStatus is the lifecycle state of an account. New accounts are
// created pending and must be approved before they can move money.
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
)

// Customer is a registered bank customer.
type Customer struct {
	ID           int64
	FirstName    string
	LastName     string
	Street       string
	City         string
	State        string
	Zip          int
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Account is the externally visible account record. The balance itself
// lives in the deposit sub-record (checking/savings) or the loan record,
// keyed by the same account number.
type Account struct {
	Number     int64
	CustomerID int64
	Type       AccountType
	Status     AccountStatus
	HolderName string
	Street     string
	City       string
	State      string
	Zip        int
	OpenedAt   time.Time
}

// Approved reports whether the account has cleared the approval workflow.
func (a *Account) Approved() bool {
	return a.Status == AccountStatusApproved
}

// DepositAccount is the balance holder for a checking or savings account.
// Rate carries the service charge for checking and the interest rate for
// savings; money amounts are fixed-point decimals with 2 fraction digits.
type DepositAccount struct {
	Number  int64
	Type    AccountType
	Balance decimal.Decimal
	Rate    float64
}

// Loan is the principal/payment state of a loan account. Payment is the
// cumulative amount received; the loan is fully paid when it reaches the
// principal. Payments are not capped, so Payment can exceed Amount.
type Loan struct {
	Number  int64
	Type    AccountType
	Rate    float64
	Amount  decimal.Decimal
	Payment decimal.Decimal
	Months  int
}

// FullyPaid reports whether the cumulative payments cover the principal.
func (l *Loan) FullyPaid() bool {
	return l.Payment.GreaterThanOrEqual(l.Amount)
}

// Remaining is the outstanding principal. Negative when overpaid.
func (l *Loan) Remaining() decimal.Decimal {
	return l.Amount.Sub(l.Payment)
}

// StudentLoanDetail holds the student-loan specific attributes.
type StudentLoanDetail struct {
	Number             int64
	StudentID          int64
	GraduationStatus   string
	ExpectedGraduation time.Time
	UniversityID       int64
}

// HomeLoanDetail holds the home-loan specific attributes, including the
// insurance policy backing the property.
type HomeLoanDetail struct {
	Number           int64
	BuiltYear        int
	InsuranceNumber  int64
	InsuranceCompany string
	InsuranceStreet  string
	InsuranceCity    string
	InsuranceState   string
	InsuranceZip     int
	Premium          int64
}

// University is referenced by student loans.
type University struct {
	ID   int64
	Name string
}

// LedgerEntry is one immutable money movement between two account numbers.
// For external-funding deposits FromAccount equals ToAccount. Seq is the
// insertion order assigned by the ledger store; entries are never updated
// or deleted.
type LedgerEntry struct {
	ID          uuid.UUID
	FromAccount int64
	ToAccount   int64
	Amount      decimal.Decimal
	Seq         int64
	CreatedAt   time.Time
}

// NewLedgerEntry creates an entry with a freshly generated id.
func NewLedgerEntry(fromAccount, toAccount int64, amount decimal.Decimal) *LedgerEntry {
	return &LedgerEntry{
		ID:          uuid.New(),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		CreatedAt:   time.Now(),
	}
}

// BalancePoint is one point in a reconstructed balance history.
type BalancePoint struct {
	Date    time.Time
	Balance decimal.Decimal
}
