package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository defines the interface for loan and loan payment data access
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	Save(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Loan, error)
	FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Loan, error)
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
	// Sum aggregates principal and fixed interest. An empty year matches every year.
	Sum(ctx context.Context, statuses []string, year string) (Totals, error)

	CreatePayment(ctx context.Context, payment *models.LoanPayment) error
	// FindPayments returns a loan's payments newest first.
	FindPayments(ctx context.Context, loanID uuid.UUID) ([]models.LoanPayment, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(loan).Error
}

func (r *loanRepository) Save(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(loan).Error
}

func (r *loanRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("loan_date DESC, created_at DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND financial_year = ?", status, year).
		Order("loan_date ASC, created_at ASC").
		Find(&loans).Error
	return loans, err
}

var loanSortable = map[string]bool{"loan_date": true, "loan_amount": true, "created_at": true, "status": true}

func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	// status_in takes a comma separated list and wins over status
	if val := query.Filters["status_in"]; val != "" {
		statuses := strings.Split(val, ",")
		for i, s := range statuses {
			statuses[i] = strings.TrimSpace(s)
		}
		db = db.Where("status IN ?", statuses)
	} else if val := query.Filters["status"]; val != "" {
		db = db.Where("status = ?", val)
	}
	if val := query.Filters["financial_year"]; val != "" {
		db = db.Where("financial_year = ?", val)
	}
	if val := query.Filters["member_id"]; val != "" {
		db = db.Where("member_id = ?", val)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db.Preload("Member"), query, loanSortable, "loan_date DESC, created_at DESC").
		Find(&loans).Error
	return loans, total, err
}

func (r *loanRepository) Sum(ctx context.Context, statuses []string, year string) (Totals, error) {
	var totals Totals

	db := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("COALESCE(SUM(loan_amount), 0) AS principal, COALESCE(SUM(interest_amount), 0) AS interest, COUNT(*) AS count").
		Where("status IN ?", statuses)
	if year != "" {
		db = db.Where("financial_year = ?", year)
	}

	err := db.Scan(&totals).Error
	return totals, err
}

func (r *loanRepository) CreatePayment(ctx context.Context, payment *models.LoanPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *loanRepository) FindPayments(ctx context.Context, loanID uuid.UUID) ([]models.LoanPayment, error) {
	var payments []models.LoanPayment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("payment_date DESC, created_at DESC").
		Find(&payments).Error
	return payments, err
}
