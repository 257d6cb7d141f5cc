package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/siddharth-k03/urgas/pkg/apperrors"
)

// AmountScale is the number of fractional digits money is stored with.
const AmountScale = 2

// maxAmount is the first value that no longer fits numeric(14,2).
var maxAmount = decimal.New(1, 12)

// validateAmount checks a strictly positive monetary value.
func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be positive, got %s: %w", field, amount, apperrors.ErrInvalidAmount)
	}
	return validateMoney(field, amount)
}

// validateBudget checks a non-negative monetary value.
func validateBudget(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s: %w", field, amount, apperrors.ErrInvalidAmount)
	}
	return validateMoney(field, amount)
}

func validateMoney(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%s %s has more than %d decimal places: %w", field, amount, AmountScale, apperrors.ErrInvalidAmount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%s %s exceeds the maximum of %s: %w", field, amount, maxAmount.Sub(decimal.New(1, -AmountScale)), apperrors.ErrInvalidAmount)
	}
	return nil
}
