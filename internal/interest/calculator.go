// Package interest holds the pure accrual rules shared by deposits and loans:
// 30-day billing months rounded up, flat monthly percentage rates, and
// April-March financial year labels.
package interest

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the fixed billing month length. Calendar months are never used.
const DaysPerMonth = 30

var (
	DefaultDepositMonthlyRate = decimal.RequireFromString("2.5")
	DefaultLoanMonthlyRate    = decimal.RequireFromString("5.0")

	hundred = decimal.NewFromInt(100)
)

// ErrInconsistentInput is returned when a negative principal or rate reaches the calculator.
var ErrInconsistentInput = errors.New("inconsistent interest input")

// Duration is an elapsed period expressed in whole days and billing months.
type Duration struct {
	Days   int `json:"days"`
	Months int `json:"months"`
}

// DateOf strips the clock from t, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from start to end. The result is negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((DateOf(end).Unix() - DateOf(start).Unix()) / secondsPerDay)
}

// BillingMonths rounds elapsed days up to whole 30-day months: 1-30 => 1, 31-60 => 2.
func BillingMonths(days int) int {
	if days <= 0 {
		return 0
	}
	return (days + DaysPerMonth - 1) / DaysPerMonth
}

// Calculate returns principal x rate x months / 100, rounded half-up to 2 places.
// Zero dates or a period that does not move forward yield zero.
func Calculate(principal decimal.Decimal, start, end time.Time, monthlyRatePercent decimal.Decimal) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: principal %s is negative", ErrInconsistentInput, principal.String())
	}
	if monthlyRatePercent.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: rate %s is negative", ErrInconsistentInput, monthlyRatePercent.String())
	}
	if start.IsZero() || end.IsZero() {
		return decimal.Zero, nil
	}

	months := BillingMonths(DaysBetween(start, end))
	if months == 0 {
		return decimal.Zero, nil
	}

	return principal.
		Mul(monthlyRatePercent).
		Mul(decimal.NewFromInt(int64(months))).
		Div(hundred).
		Round(2), nil
}

// Accrued is Calculate for read-time projections, where inconsistent input
// simply yields no projected interest.
func Accrued(principal decimal.Decimal, start, end time.Time, monthlyRatePercent decimal.Decimal) decimal.Decimal {
	amount, err := Calculate(principal, start, end, monthlyRatePercent)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// DurationOf reports the elapsed period for display. Backwards periods are reported as zero.
func DurationOf(start, end time.Time) Duration {
	if start.IsZero() || end.IsZero() {
		return Duration{}
	}
	days := DaysBetween(start, end)
	if days < 0 {
		days = 0
	}
	return Duration{Days: days, Months: BillingMonths(days)}
}
