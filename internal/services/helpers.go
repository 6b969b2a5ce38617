package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// positiveAmount rounds to cents and rejects anything that rounds to zero or below.
func positiveAmount(amount decimal.Decimal, field string) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, validationError("%s must be greater than zero", field)
	}
	return rounded, nil
}

func validatePrincipal(amount decimal.Decimal, date time.Time) (decimal.Decimal, error) {
	rounded, err := positiveAmount(amount, "amount")
	if err != nil {
		return decimal.Zero, err
	}
	if date.IsZero() {
		return decimal.Zero, validationError("date is required")
	}
	return rounded, nil
}

func resolveRate(rate *decimal.Decimal, fallback decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return fallback, nil
	}
	if rate.IsNegative() {
		return decimal.Zero, validationError("interest rate must not be negative")
	}
	return rate.Round(2), nil
}

func actorOrDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
