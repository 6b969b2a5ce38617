package interest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculate_MonthRounding(t *testing.T) {
	day0 := date(2024, time.April, 1)
	principal := dec("1000")

	tests := []struct {
		name     string
		days     int
		expected string
	}{
		{name: "1 day rounds up to 1 month", days: 1, expected: "50.00"},
		{name: "30 days is exactly 1 month", days: 30, expected: "50.00"},
		{name: "31 days rounds up to 2 months", days: 31, expected: "100.00"},
		{name: "60 days is 2 months", days: 60, expected: "100.00"},
		{name: "61 days rounds up to 3 months", days: 61, expected: "150.00"},
		{name: "365 days is 13 months", days: 365, expected: "650.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(principal, day0, day0.AddDate(0, 0, tt.days), DefaultLoanMonthlyRate)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.StringFixed(2))
		})
	}
}

func TestCalculate_ZeroForNonPositivePeriods(t *testing.T) {
	start := date(2024, time.June, 15)
	for _, p := range []string{"0", "1", "1000", "123456.78"} {
		same, err := Calculate(dec(p), start, start, DefaultLoanMonthlyRate)
		require.NoError(t, err)
		assert.True(t, same.IsZero(), "same-day period must accrue nothing for %s", p)

		backwards, err := Calculate(dec(p), start, start.AddDate(0, 0, -10), DefaultLoanMonthlyRate)
		require.NoError(t, err)
		assert.True(t, backwards.IsZero(), "backwards period must accrue nothing for %s", p)
	}
}

func TestCalculate_AbsentInputs(t *testing.T) {
	got, err := Calculate(dec("1000"), time.Time{}, date(2024, time.May, 1), DefaultDepositMonthlyRate)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = Calculate(dec("1000"), date(2024, time.May, 1), time.Time{}, DefaultDepositMonthlyRate)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestCalculate_RejectsNegativeInputs(t *testing.T) {
	_, err := Calculate(dec("-1"), date(2024, time.April, 1), date(2024, time.May, 1), DefaultLoanMonthlyRate)
	assert.ErrorIs(t, err, ErrInconsistentInput)

	_, err = Calculate(dec("100"), date(2024, time.April, 1), date(2024, time.May, 1), dec("-0.5"))
	assert.ErrorIs(t, err, ErrInconsistentInput)

	assert.True(t, Accrued(dec("-1"), date(2024, time.April, 1), date(2024, time.May, 1), DefaultLoanMonthlyRate).IsZero())
}

func TestCalculate_MonotonicInElapsedDays(t *testing.T) {
	start := date(2024, time.April, 1)
	principal := dec("7531.29")
	previous := decimal.Zero
	for d := -5; d <= 400; d++ {
		got, err := Calculate(principal, start, start.AddDate(0, 0, d), DefaultDepositMonthlyRate)
		require.NoError(t, err)
		assert.False(t, got.LessThan(previous), "interest decreased at day %d", d)
		previous = got
	}
}

func TestCalculate_DepositScenario(t *testing.T) {
	// 45 days => 2 months at 2.5%
	got, err := Calculate(dec("1000"), date(2024, time.April, 1), date(2024, time.May, 16), DefaultDepositMonthlyRate)
	require.NoError(t, err)
	assert.Equal(t, 45, DaysBetween(date(2024, time.April, 1), date(2024, time.May, 16)))
	assert.Equal(t, "50.00", got.StringFixed(2))
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	// 0.25 x 2.5 x 1 / 100 = 0.00625 => 0.01
	got, err := Calculate(dec("0.25"), date(2024, time.April, 1), date(2024, time.April, 2), DefaultDepositMonthlyRate)
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.StringFixed(2))

	// 333.33 x 2.5 / 100 = 8.33325 => 8.33
	got, err = Calculate(dec("333.33"), date(2024, time.April, 1), date(2024, time.April, 2), DefaultDepositMonthlyRate)
	require.NoError(t, err)
	assert.Equal(t, "8.33", got.StringFixed(2))
}

func TestDaysBetween_IgnoresClockAndZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2024, time.April, 1, 23, 50, 0, 0, ist)
	end := time.Date(2024, time.April, 2, 0, 5, 0, 0, ist)
	assert.Equal(t, 1, DaysBetween(start, end))
}

func TestDaysBetween_Centuries(t *testing.T) {
	start := date(1700, time.January, 1)
	end := date(2100, time.January, 1)

	// 400 Gregorian years hold 146097 days
	assert.Equal(t, 146097, DaysBetween(start, end))
	assert.Equal(t, -146097, DaysBetween(end, start))
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, Duration{Days: 45, Months: 2}, DurationOf(date(2024, time.April, 1), date(2024, time.May, 16)))
	assert.Equal(t, Duration{Days: 0, Months: 0}, DurationOf(date(2024, time.April, 1), date(2024, time.March, 1)))
	assert.Equal(t, Duration{}, DurationOf(time.Time{}, date(2024, time.March, 1)))
}
