package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OpeningBalance is the fixed balance a new checking or savings account is
// opened with. Balance history reconstruction seeds from this value.
var OpeningBalance = decimal.RequireFromString("500.00")

// ParseAmount parses a decimal string into a money amount, requiring a
// positive value with at most 2 fraction digits.
func ParseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ValidateAmount checks that an already-parsed amount is positive and has
// at most 2 fraction digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return ErrInvalidAmount
	}
	return nil
}

// AmountToCents converts a validated amount to an integer number of cents,
// the unit the payment gateway charges in.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}
