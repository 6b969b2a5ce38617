package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"gorm.io/gorm"
)

// Loan is money lent to a member. Interest is fixed only when the loan leaves ACTIVE.
type Loan struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"member_id"`
	LoanAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"loan_amount"`
	LoanDate        time.Time       `gorm:"type:date;not null" json:"loan_date"`
	InterestRate    decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	FinancialYear   string          `gorm:"size:10;not null;index:idx_loans_status_year,priority:2" json:"financial_year"`
	Status          string          `gorm:"size:20;not null;default:ACTIVE;index:idx_loans_status_year,priority:1" json:"status"`
	ReturnDate      *time.Time      `gorm:"type:date" json:"return_date"`
	InterestAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"interest_amount"`
	TotalRepayment  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_repayment"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"remaining_amount"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	// CarriedForwardFromID points back at the loan this one continues. Old loans never point forward.
	CarriedForwardFromID *uuid.UUID `gorm:"type:uuid;index" json:"carried_forward_from_id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	// Associations
	Member   *Member       `gorm:"foreignKey:MemberID" json:"-"`
	Payments []LoanPayment `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusActive         = "ACTIVE"
	LoanStatusClosed         = "CLOSED"
	LoanStatusSettled        = "SETTLED"
	LoanStatusCarriedForward = "CARRIED_FORWARD"
)

// BeforeCreate assigns a UUID when the caller did not.
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsActive returns true while the loan accrues interest and accepts payments
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// MayAcceptPayment returns true if payments can be applied
func (l *Loan) MayAcceptPayment() bool {
	return l.IsActive()
}

// MayClose returns true if the loan can reach any terminal state
func (l *Loan) MayClose() bool {
	return l.IsActive()
}

// IsCarriedForward returns true if this loan continues an earlier one
func (l *Loan) IsCarriedForward() bool {
	return l.CarriedForwardFromID != nil
}

// Settled returns payments plus discounts applied so far
func (l *Loan) Settled() decimal.Decimal {
	return l.PaidAmount.Add(l.DiscountAmount)
}

// LoanResponse is the JSON response format for loans.
// Current* fields are projections as of the response date and are only set while ACTIVE.
type LoanResponse struct {
	ID                   uuid.UUID        `json:"id"`
	MemberID             uuid.UUID        `json:"member_id"`
	MemberName           string           `json:"member_name,omitempty"`
	LoanAmount           decimal.Decimal  `json:"loan_amount"`
	LoanDate             time.Time        `json:"loan_date"`
	InterestRate         decimal.Decimal  `json:"interest_rate"`
	FinancialYear        string           `json:"financial_year"`
	Status               string           `json:"status"`
	ReturnDate           *time.Time       `json:"return_date"`
	InterestAmount       decimal.Decimal  `json:"interest_amount"`
	TotalRepayment       decimal.Decimal  `json:"total_repayment"`
	DiscountAmount       decimal.Decimal  `json:"discount_amount"`
	PaidAmount           decimal.Decimal  `json:"paid_amount"`
	RemainingAmount      decimal.Decimal  `json:"remaining_amount"`
	CarriedForward       bool             `json:"carried_forward"`
	CarriedForwardFromID *uuid.UUID       `json:"carried_forward_from_id,omitempty"`
	CurrentInterest      *decimal.Decimal `json:"current_interest,omitempty"`
	CurrentTotal         *decimal.Decimal `json:"current_total,omitempty"`
	CurrentRemaining     *decimal.Decimal `json:"current_remaining,omitempty"`
	DurationDays         int              `json:"duration_days"`
	DurationMonths       int              `json:"duration_months"`
}

// ToResponse converts Loan to LoanResponse as of today.
func (l *Loan) ToResponse(today time.Time) LoanResponse {
	resp := LoanResponse{
		ID:                   l.ID,
		MemberID:             l.MemberID,
		LoanAmount:           l.LoanAmount,
		LoanDate:             l.LoanDate,
		InterestRate:         l.InterestRate,
		FinancialYear:        l.FinancialYear,
		Status:               l.Status,
		ReturnDate:           l.ReturnDate,
		InterestAmount:       l.InterestAmount,
		TotalRepayment:       l.TotalRepayment,
		DiscountAmount:       l.DiscountAmount,
		PaidAmount:           l.PaidAmount,
		RemainingAmount:      l.RemainingAmount,
		CarriedForward:       l.IsCarriedForward(),
		CarriedForwardFromID: l.CarriedForwardFromID,
	}

	if l.Member != nil {
		resp.MemberName = l.Member.FullName()
	}

	end := today
	if l.ReturnDate != nil {
		end = *l.ReturnDate
	}
	duration := interest.DurationOf(l.LoanDate, end)
	resp.DurationDays = duration.Days
	resp.DurationMonths = duration.Months

	if l.IsActive() {
		current := interest.Accrued(l.LoanAmount, l.LoanDate, today, l.InterestRate)
		total := l.LoanAmount.Add(current)
		remaining := total.Sub(l.Settled())
		resp.CurrentInterest = &current
		resp.CurrentTotal = &total
		resp.CurrentRemaining = &remaining
	}

	return resp
}

// MaskedLoanResponse is the public view of a loan
type MaskedLoanResponse struct {
	ID         uuid.UUID       `json:"id"`
	MemberName string          `json:"member_name"`
	LoanAmount decimal.Decimal `json:"loan_amount"`
	LoanDate   time.Time       `json:"loan_date"`
	Status     string          `json:"status"`
}

// ToMaskedResponse hides the member's name
func (l *Loan) ToMaskedResponse() MaskedLoanResponse {
	resp := MaskedLoanResponse{
		ID:         l.ID,
		LoanAmount: l.LoanAmount,
		LoanDate:   l.LoanDate,
		Status:     l.Status,
	}
	if l.Member != nil {
		resp.MemberName = l.Member.MaskedName()
	}
	return resp
}
