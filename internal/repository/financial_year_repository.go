package repository

import (
	"context"

	"github.com/sjperalta/gramin-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FinancialYearRepository defines the interface for financial year records
type FinancialYearRepository interface {
	FindByYear(ctx context.Context, year string) (*models.FinancialYear, error)
	// Upsert inserts the record or overwrites the existing row with the same year label.
	Upsert(ctx context.Context, record *models.FinancialYear) error
	List(ctx context.Context) ([]models.FinancialYear, error)
}

type financialYearRepository struct {
	db *gorm.DB
}

// NewFinancialYearRepository creates a new financial year repository
func NewFinancialYearRepository(db *gorm.DB) FinancialYearRepository {
	return &financialYearRepository{db: db}
}

func (r *financialYearRepository) FindByYear(ctx context.Context, year string) (*models.FinancialYear, error) {
	var record models.FinancialYear
	if err := r.db.WithContext(ctx).Where("year = ?", year).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *financialYearRepository) Upsert(ctx context.Context, record *models.FinancialYear) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_date", "end_date", "is_active",
				"total_deposits", "total_loans", "total_interest_earned", "total_interest_paid",
				"net_balance", "settlement_date", "updated_at",
			}),
		}).
		Create(record).Error
}

func (r *financialYearRepository) List(ctx context.Context) ([]models.FinancialYear, error) {
	var records []models.FinancialYear
	err := r.db.WithContext(ctx).Order("year DESC").Find(&records).Error
	return records, err
}
