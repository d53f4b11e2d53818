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

// LoanRepository implements domain.LoanRepository using PostgreSQL.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create persists a new loan record.
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (number, type, rate, amount, payment, months)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q(ctx, r.pool).Exec(ctx, query,
		loan.Number,
		string(loan.Type),
		loan.Rate,
		loan.Amount,
		loan.Payment,
		loan.Months,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// CreateStudentDetail persists the student-loan specific record.
func (r *LoanRepository) CreateStudentDetail(ctx context.Context, detail *domain.StudentLoanDetail) error {
	query := `
		INSERT INTO student_loan_details (number, student_id, graduation_status, expected_graduation, university_id)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q(ctx, r.pool).Exec(ctx, query,
		detail.Number,
		detail.StudentID,
		detail.GraduationStatus,
		detail.ExpectedGraduation,
		detail.UniversityID,
	)
	if err != nil {
		return fmt.Errorf("failed to create student loan detail: %w", err)
	}
	return nil
}

// CreateHomeDetail persists the home-loan specific record.
func (r *LoanRepository) CreateHomeDetail(ctx context.Context, detail *domain.HomeLoanDetail) error {
	query := `
		INSERT INTO home_loan_details (number, built_year, insurance_number, insurance_company,
			insurance_street, insurance_city, insurance_state, insurance_zip, premium)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q(ctx, r.pool).Exec(ctx, query,
		detail.Number,
		detail.BuiltYear,
		detail.InsuranceNumber,
		detail.InsuranceCompany,
		detail.InsuranceStreet,
		detail.InsuranceCity,
		detail.InsuranceState,
		detail.InsuranceZip,
		detail.Premium,
	)
	if err != nil {
		return fmt.Errorf("failed to create home loan detail: %w", err)
	}
	return nil
}

// CreatePersonalDetail persists the personal-loan marker record.
func (r *LoanRepository) CreatePersonalDetail(ctx context.Context, number int64) error {
	query := `INSERT INTO personal_loan_details (number) VALUES ($1)`

	if _, err := q(ctx, r.pool).Exec(ctx, query, number); err != nil {
		return fmt.Errorf("failed to create personal loan detail: %w", err)
	}
	return nil
}

// Get reads a loan without taking an exclusive lock.
func (r *LoanRepository) Get(ctx context.Context, number int64) (*domain.Loan, error) {
	return r.get(ctx, number, false)
}

// Lock reads a loan under SELECT ... FOR UPDATE, held until the enclosing
// transaction ends. A lock-wait timeout maps to domain.ErrBusy.
func (r *LoanRepository) Lock(ctx context.Context, number int64) (*domain.Loan, error) {
	return r.get(ctx, number, true)
}

func (r *LoanRepository) get(ctx context.Context, number int64, forUpdate bool) (*domain.Loan, error) {
	query := `SELECT number, type, rate, amount, payment, months FROM loans WHERE number = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var loan domain.Loan
	var loanType string
	err := q(ctx, r.pool).QueryRow(ctx, query, number).Scan(
		&loan.Number,
		&loanType,
		&loan.Rate,
		&loan.Amount,
		&loan.Payment,
		&loan.Months,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}
		if isLockTimeout(err) {
			return nil, fmt.Errorf("%w: loan %d", domain.ErrBusy, number)
		}
		return nil, fmt.Errorf("failed to read loan: %w", err)
	}

	loan.Type = domain.AccountType(loanType)
	return &loan, nil
}

// UpdatePayment sets the cumulative payment received for a loan.
func (r *LoanRepository) UpdatePayment(ctx context.Context, number int64, payment decimal.Decimal) error {
	query := `UPDATE loans SET payment = $2 WHERE number = $1`

	tag, err := q(ctx, r.pool).Exec(ctx, query, number, payment)
	if err != nil {
		return fmt.Errorf("failed to update loan payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}
