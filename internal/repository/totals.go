package repository

import "github.com/shopspring/decimal"

// Totals is the result of an aggregate query over deposits or loans.
type Totals struct {
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Count     int64
}
