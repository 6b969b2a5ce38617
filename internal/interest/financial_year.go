package interest

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidFinancialYear is returned for labels that are not "YYYY-YY" with consecutive years.
var ErrInvalidFinancialYear = errors.New("invalid financial year label")

// FinancialYearOf labels the April-March year containing date.
// 2024-04-01 and 2025-03-31 both belong to "2024-25".
func FinancialYearOf(date time.Time) string {
	year := date.Year()
	if date.Month() < time.April {
		year--
	}
	return formatFinancialYear(year)
}

// ParseFinancialYear returns the calendar year in which the labelled financial year starts.
func ParseFinancialYear(label string) (int, error) {
	if len(label) != 7 || label[4] != '-' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFinancialYear, label)
	}
	start, err := strconv.Atoi(label[:4])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFinancialYear, label)
	}
	end, err := strconv.Atoi(label[5:])
	if err != nil || end != (start+1)%100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFinancialYear, label)
	}
	return start, nil
}

// NextFinancialYear shifts both halves of the label by one year: "2024-25" => "2025-26".
func NextFinancialYear(label string) (string, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return "", err
	}
	return formatFinancialYear(start + 1), nil
}

// FinancialYearStart returns April 1 of the label's first year.
func FinancialYearStart(label string) (time.Time, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(start, time.April, 1, 0, 0, 0, 0, time.UTC), nil
}

// FinancialYearEnd returns March 31 of the label's second year.
func FinancialYearEnd(label string) (time.Time, error) {
	start, err := ParseFinancialYear(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(start+1, time.March, 31, 0, 0, 0, 0, time.UTC), nil
}

func formatFinancialYear(start int) string {
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}
