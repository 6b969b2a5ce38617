package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanPayment is an append-only record of money (and optional discount) applied to a loan.
type LoanPayment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	LoanID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"loan_id"`
	PaymentAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"payment_amount"`
	PaymentDate     time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_applied"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	CreatedBy       string          `gorm:"size:50" json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName specifies the table name for LoanPayment
func (LoanPayment) TableName() string {
	return "loan_payments"
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *LoanPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate refuses edits: payments are append-only.
func (p *LoanPayment) BeforeUpdate(tx *gorm.DB) error {
	return ErrPaymentImmutable
}

// LoanPaymentResponse is the JSON response format for loan payments
type LoanPaymentResponse struct {
	ID              uuid.UUID       `json:"id"`
	LoanID          uuid.UUID       `json:"loan_id"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	Notes           *string         `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToResponse converts LoanPayment to LoanPaymentResponse
func (p *LoanPayment) ToResponse() LoanPaymentResponse {
	return LoanPaymentResponse{
		ID:              p.ID,
		LoanID:          p.LoanID,
		PaymentAmount:   p.PaymentAmount,
		PaymentDate:     p.PaymentDate,
		DiscountApplied: p.DiscountApplied,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
}
