package domain

import "errors"

var (
	// ErrCustomerNotFound is returned when a referenced customer doesn't exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrAccountNotFound is returned when a referenced account doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrLoanNotFound is returned when a referenced loan doesn't exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrInvalidRequest is returned when required input is missing or
	// malformed. Checked before any mutation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidAmount is returned when an amount is not a positive value
	// with at most 2 fraction digits.
	ErrInvalidAmount = errors.New("invalid amount: must be positive with at most 2 decimal places")

	// ErrSameAccount is returned when source and destination resolve to the
	// same account.
	ErrSameAccount = errors.New("source and destination must be different accounts")

	// ErrNotDepositAccount is returned when an operation requires a
	// balance-bearing (checking or savings) account type.
	ErrNotDepositAccount = errors.New("account type does not carry a balance")

	// ErrAccountNotApproved is returned when an account involved in a money
	// movement is still pending approval.
	ErrAccountNotApproved = errors.New("account not approved")

	// ErrInsufficientFunds is returned when the funding account balance is
	// lower than the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrLoanAlreadyPaid is returned when a payment targets a loan whose
	// cumulative payments already cover the principal.
	ErrLoanAlreadyPaid = errors.New("loan already paid")

	// ErrEmailTaken is returned when registering with an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on failed authentication. It is
	// deliberately the same for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPaymentDeclined is returned when the external payment gateway
	// declines a card charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrBusy is returned when a row lock could not be acquired within the
	// store's lock-wait timeout. The operation was rolled back and can be
	// retried by the caller.
	ErrBusy = errors.New("account busy, retry later")

	// ErrAccountNumberTaken is returned by the account store when a generated
	// account number collides with an existing one.
	ErrAccountNumberTaken = errors.New("account number already in use")

	// ErrAccountTypeTaken is returned when the customer already holds an
	// account of the requested type. Unlike a number collision this is not
	// retryable: a fresh number hits the same constraint.
	ErrAccountTypeTaken = errors.New("customer already has an account of this type")
)
