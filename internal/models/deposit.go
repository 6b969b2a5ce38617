package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"gorm.io/gorm"
)

// Deposit is a member's savings placed with the cooperative, accruing monthly interest until returned or settled.
type Deposit struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"member_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DepositDate    time.Time       `gorm:"type:date;not null" json:"deposit_date"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	FinancialYear  string          `gorm:"size:10;not null;index:idx_deposits_status_year,priority:2" json:"financial_year"`
	Status         string          `gorm:"size:20;not null;default:ACTIVE;index:idx_deposits_status_year,priority:1" json:"status"`
	ReturnDate     *time.Time      `gorm:"type:date" json:"return_date"`
	InterestEarned decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"interest_earned"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	// Associations
	Member *Member `gorm:"foreignKey:MemberID" json:"-"`
}

// TableName specifies the table name for Deposit
func (Deposit) TableName() string {
	return "deposits"
}

// Deposit status constants
const (
	DepositStatusActive   = "ACTIVE"
	DepositStatusReturned = "RETURNED"
	DepositStatusSettled  = "SETTLED"
)

// BeforeCreate assigns a UUID when the caller did not.
func (d *Deposit) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// IsActive returns true while the deposit still accrues interest
func (d *Deposit) IsActive() bool {
	return d.Status == DepositStatusActive
}

// MayEdit returns true if amount and date may still change
func (d *Deposit) MayEdit() bool {
	return d.IsActive()
}

// MayClose returns true if the deposit can be returned or settled
func (d *Deposit) MayClose() bool {
	return d.IsActive()
}

// DepositResponse is the JSON response format for deposits.
// Current* fields are projections as of the response date and are only set while ACTIVE.
type DepositResponse struct {
	ID              uuid.UUID        `json:"id"`
	MemberID        uuid.UUID        `json:"member_id"`
	MemberName      string           `json:"member_name,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	DepositDate     time.Time        `json:"deposit_date"`
	InterestRate    decimal.Decimal  `json:"interest_rate"`
	FinancialYear   string           `json:"financial_year"`
	Status          string           `json:"status"`
	ReturnDate      *time.Time       `json:"return_date"`
	InterestEarned  decimal.Decimal  `json:"interest_earned"`
	TotalAmount     decimal.Decimal  `json:"total_amount"`
	CurrentInterest *decimal.Decimal `json:"current_interest,omitempty"`
	CurrentTotal    *decimal.Decimal `json:"current_total,omitempty"`
	DurationDays    int              `json:"duration_days"`
	DurationMonths  int              `json:"duration_months"`
}

// ToResponse converts Deposit to DepositResponse as of today.
func (d *Deposit) ToResponse(today time.Time) DepositResponse {
	resp := DepositResponse{
		ID:             d.ID,
		MemberID:       d.MemberID,
		Amount:         d.Amount,
		DepositDate:    d.DepositDate,
		InterestRate:   d.InterestRate,
		FinancialYear:  d.FinancialYear,
		Status:         d.Status,
		ReturnDate:     d.ReturnDate,
		InterestEarned: d.InterestEarned,
		TotalAmount:    d.TotalAmount,
	}

	if d.Member != nil {
		resp.MemberName = d.Member.FullName()
	}

	end := today
	if d.ReturnDate != nil {
		end = *d.ReturnDate
	}
	duration := interest.DurationOf(d.DepositDate, end)
	resp.DurationDays = duration.Days
	resp.DurationMonths = duration.Months

	if d.IsActive() {
		current := interest.Accrued(d.Amount, d.DepositDate, today, d.InterestRate)
		total := d.Amount.Add(current)
		resp.CurrentInterest = &current
		resp.CurrentTotal = &total
	}

	return resp
}

// MaskedDepositResponse is the public view of a deposit
type MaskedDepositResponse struct {
	ID          uuid.UUID       `json:"id"`
	MemberName  string          `json:"member_name"`
	Amount      decimal.Decimal `json:"amount"`
	DepositDate time.Time       `json:"deposit_date"`
	Status      string          `json:"status"`
}

// ToMaskedResponse hides the member's name
func (d *Deposit) ToMaskedResponse() MaskedDepositResponse {
	resp := MaskedDepositResponse{
		ID:          d.ID,
		Amount:      d.Amount,
		DepositDate: d.DepositDate,
		Status:      d.Status,
	}
	if d.Member != nil {
		resp.MemberName = d.Member.MaskedName()
	}
	return resp
}
