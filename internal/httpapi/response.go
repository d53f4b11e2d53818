package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pba-bank/backoffice/internal/domain"
)

// errorResponse is the JSON error envelope returned on every failure.
// The id is generated fresh per response so support can correlate logs
// without exposing any internal identifier.
type errorResponse struct {
	Code        string    `json:"code"`
	Description string    `json:"description"`
	ID          uuid.UUID `json:"id"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorCode(w http.ResponseWriter, statusCode int, code, description string) {
	writeJSON(w, statusCode, errorResponse{
		Code:        code,
		Description: description,
		ID:          uuid.New(),
	})
}

// writeError maps a domain error to its HTTP status and stable kind.
// Unexpected errors collapse to a generic 500 so storage details never
// leak to callers.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrNotDepositAccount):
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrLoanNotFound):
		writeErrorCode(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAccountNotApproved):
		writeErrorCode(w, http.StatusConflict, "ACCOUNT_NOT_APPROVED", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		writeErrorCode(w, http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, domain.ErrLoanAlreadyPaid):
		writeErrorCode(w, http.StatusConflict, "LOAN_ALREADY_PAID", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeErrorCode(w, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, domain.ErrAccountTypeTaken):
		writeErrorCode(w, http.StatusConflict, "ACCOUNT_TYPE_TAKEN", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeErrorCode(w, http.StatusPaymentRequired, "PAYMENT_DECLINED", err.Error())
	case errors.Is(err, domain.ErrBusy):
		writeErrorCode(w, http.StatusServiceUnavailable, "BUSY", err.Error())
	default:
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
	}
}
