package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FinancialYear holds the aggregates written by the yearly settlement, one row per label.
type FinancialYear struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Year                string          `gorm:"size:10;not null;uniqueIndex" json:"year"`
	StartDate           time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate             time.Time       `gorm:"type:date;not null" json:"end_date"`
	IsActive            bool            `gorm:"default:true;not null" json:"is_active"`
	TotalDeposits       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_deposits"`
	TotalLoans          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_loans"`
	TotalInterestEarned decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_interest_earned"`
	TotalInterestPaid   decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"total_interest_paid"`
	NetBalance          decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"net_balance"`
	SettlementDate      *time.Time      `gorm:"type:date" json:"settlement_date"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for FinancialYear
func (FinancialYear) TableName() string {
	return "financial_years"
}

// BeforeCreate assigns a UUID when the caller did not.
func (f *FinancialYear) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// IsSettled returns true once a settlement run has written this year
func (f *FinancialYear) IsSettled() bool {
	return f.SettlementDate != nil
}
