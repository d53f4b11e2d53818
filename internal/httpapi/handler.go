package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/pba-bank/backoffice/internal/domain"
)

// Service interfaces consumed by the handlers. Declared here so the
// handlers can be unit tested against fakes.
type TransferService interface {
	Transfer(ctx context.Context, fromCustomerID int64, fromAccountType domain.AccountType, toAccountNumber int64, amount decimal.Decimal) (*domain.LedgerEntry, error)
}

type LoanService interface {
	PayLoan(ctx context.Context, loanAccountNumber, payingCustomerID int64, payingAccountType domain.AccountType, amount decimal.Decimal) (decimal.Decimal, error)
}

type HistoryService interface {
	HistoryFor(ctx context.Context, accountNumber int64) ([]domain.BalancePoint, error)
}

type AccountService interface {
	Open(ctx context.Context, req domain.OpenAccountRequest) (*domain.Account, error)
	Approve(ctx context.Context, number int64) (*domain.Account, error)
	Deposit(ctx context.Context, customerID int64, accountType domain.AccountType, paymentMethodRef string, amount decimal.Decimal) (*domain.LedgerEntry, error)
	Get(ctx context.Context, number int64) (*domain.Account, error)
	ListForCustomer(ctx context.Context, customerID int64) ([]*domain.Account, error)
}

type CustomerService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Customer, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Customer, error)
}

// Handler translates HTTP requests into service calls. It does request
// parsing only; all business rules live in the services.
type Handler struct {
	transfers TransferService
	loans     LoanService
	history   HistoryService
	accounts  AccountService
	customers CustomerService
}

// NewHandler creates a Handler over the given services.
func NewHandler(
	transfers TransferService,
	loans LoanService,
	history HistoryService,
	accounts AccountService,
	customers CustomerService,
) *Handler {
	return &Handler{
		transfers: transfers,
		loans:     loans,
		history:   history,
		accounts:  accounts,
		customers: customers,
	}
}

type transferRequest struct {
	FromCustomerID  int64  `json:"from_customer_id"`
	FromAccountType string `json:"from_account_type"`
	ToAccountNumber int64  `json:"to_account_number"`
	Amount          string `json:"amount"`
}

type movementResponse struct {
	TransactionID string `json:"transaction_id"`
	FromAccount   int64  `json:"from_account"`
	ToAccount     int64  `json:"to_account"`
	Amount        string `json:"amount"`
	Timestamp     string `json:"timestamp"`
}

func movementFromEntry(entry *domain.LedgerEntry) movementResponse {
	return movementResponse{
		TransactionID: entry.ID.String(),
		FromAccount:   entry.FromAccount,
		ToAccount:     entry.ToAccount,
		Amount:        entry.Amount.StringFixed(2),
		Timestamp:     entry.CreatedAt.Format(time.RFC3339),
	}
}

// Transfer handles POST /api/transfers.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.transfers.Transfer(r.Context(), req.FromCustomerID, domain.AccountType(req.FromAccountType), req.ToAccountNumber, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movementFromEntry(entry))
}

type payLoanRequest struct {
	PayingCustomerID  int64  `json:"paying_customer_id"`
	PayingAccountType string `json:"paying_account_type"`
	Amount            string `json:"amount"`
}

type payLoanResponse struct {
	LoanAccountNumber int64  `json:"loan_account_number"`
	RemainingBalance  string `json:"remaining_balance"`
}

// PayLoan handles POST /api/loans/{number}/payments.
func (h *Handler) PayLoan(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}

	var req payLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	remaining, err := h.loans.PayLoan(r.Context(), number, req.PayingCustomerID, domain.AccountType(req.PayingAccountType), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payLoanResponse{
		LoanAccountNumber: number,
		RemainingBalance:  remaining.StringFixed(2),
	})
}

type historyPoint struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}

type historyResponse struct {
	AccountNumber int64          `json:"account_number"`
	Points        []historyPoint `json:"points"`
}

// History handles GET /api/accounts/{number}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}

	points, err := h.history.HistoryFor(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := historyResponse{AccountNumber: number, Points: make([]historyPoint, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, historyPoint{
			Date:    p.Date.Format("2006-01-02"),
			Balance: p.Balance.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type openAccountRequest struct {
	CustomerID int64  `json:"customer_id"`
	Type       string `json:"type"`
	HolderName string `json:"holder_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Zip        int    `json:"zip"`

	Rate       float64            `json:"rate"`
	LoanAmount string             `json:"loan_amount"`
	LoanRate   float64            `json:"loan_rate"`
	LoanMonths int                `json:"loan_months"`
	Student    *studentLoanDetail `json:"student,omitempty"`
	Home       *homeLoanDetail    `json:"home,omitempty"`
}

type studentLoanDetail struct {
	StudentID          int64  `json:"student_id"`
	GraduationStatus   string `json:"graduation_status"`
	ExpectedGraduation string `json:"expected_graduation"`
	UniversityID       int64  `json:"university_id"`
}

type homeLoanDetail struct {
	BuiltYear        int    `json:"built_year"`
	InsuranceNumber  int64  `json:"insurance_number"`
	InsuranceCompany string `json:"insurance_company"`
	InsuranceStreet  string `json:"insurance_street"`
	InsuranceCity    string `json:"insurance_city"`
	InsuranceState   string `json:"insurance_state"`
	InsuranceZip     int    `json:"insurance_zip"`
	Premium          int64  `json:"premium"`
}

type accountResponse struct {
	Number     int64  `json:"account_number"`
	CustomerID int64  `json:"customer_id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	HolderName string `json:"holder_name"`
	OpenedAt   string `json:"opened_at"`
}

func accountToResponse(account *domain.Account) accountResponse {
	return accountResponse{
		Number:     account.Number,
		CustomerID: account.CustomerID,
		Type:       string(account.Type),
		Status:     string(account.Status),
		HolderName: account.HolderName,
		OpenedAt:   account.OpenedAt.Format("2006-01-02"),
	}
}

// OpenAccount handles POST /api/accounts.
func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	open := domain.OpenAccountRequest{
		CustomerID: req.CustomerID,
		Type:       domain.AccountType(req.Type),
		HolderName: req.HolderName,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		Zip:        req.Zip,
		Rate:       req.Rate,
		LoanRate:   req.LoanRate,
		LoanMonths: req.LoanMonths,
	}

	if open.Type.IsLoan() {
		amount, err := domain.ParseAmount(req.LoanAmount)
		if err != nil {
			writeError(w, err)
			return
		}
		open.LoanAmount = amount
	}
	if req.Student != nil {
		expected, err := time.Parse("2006-01-02", req.Student.ExpectedGraduation)
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid expected_graduation date")
			return
		}
		open.Student = &domain.StudentLoanDetail{
			StudentID:          req.Student.StudentID,
			GraduationStatus:   req.Student.GraduationStatus,
			ExpectedGraduation: expected,
			UniversityID:       req.Student.UniversityID,
		}
	}
	if req.Home != nil {
		open.Home = &domain.HomeLoanDetail{
			BuiltYear:        req.Home.BuiltYear,
			InsuranceNumber:  req.Home.InsuranceNumber,
			InsuranceCompany: req.Home.InsuranceCompany,
			InsuranceStreet:  req.Home.InsuranceStreet,
			InsuranceCity:    req.Home.InsuranceCity,
			InsuranceState:   req.Home.InsuranceState,
			InsuranceZip:     req.Home.InsuranceZip,
			Premium:          req.Home.Premium,
		}
	}

	account, err := h.accounts.Open(r.Context(), open)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountToResponse(account))
}

// GetAccount handles GET /api/accounts/{number}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Get(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountToResponse(account))
}

// ApproveAccount handles POST /api/accounts/{number}/approve.
func (h *Handler) ApproveAccount(w http.ResponseWriter, r *http.Request) {
	number, ok := pathNumber(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.Approve(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountToResponse(account))
}

// ListAccounts handles GET /api/customers/{id}/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid customer id")
		return
	}

	accounts, err := h.accounts.ListForCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, accountToResponse(account))
	}
	writeJSON(w, http.StatusOK, resp)
}

type depositRequest struct {
	CustomerID    int64  `json:"customer_id"`
	AccountType   string `json:"account_type"`
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
}

// Deposit handles POST /api/deposits.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.accounts.Deposit(r.Context(), req.CustomerID, domain.AccountType(req.AccountType), req.PaymentMethod, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movementFromEntry(entry))
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       int    `json:"zip"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type customerResponse struct {
	ID        int64  `json:"customer_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// RegisterCustomer handles POST /api/customers.
func (h *Handler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	customer, err := h.customers.Register(r.Context(), domain.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		Zip:       req.Zip,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customerResponse{
		ID:        customer.ID,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "failed to parse request body")
		return
	}

	customer, err := h.customers.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerResponse{
		ID:        customer.ID,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
	})
}

// pathNumber parses the {number} path parameter, writing a 400 on failure.
func pathNumber(w http.ResponseWriter, r *http.Request) (int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid account number")
		return 0, false
	}
	return number, true
}
