package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DepositRepository defines the interface for deposit data access
type DepositRepository interface {
	Create(ctx context.Context, deposit *models.Deposit) error
	Save(ctx context.Context, deposit *models.Deposit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Deposit, error)
	FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Deposit, error)
	List(ctx context.Context, query *ListQuery) ([]models.Deposit, int64, error)
	// Sum aggregates principal and earned interest. An empty year matches every year.
	Sum(ctx context.Context, statuses []string, year string) (Totals, error)
}

type depositRepository struct {
	db *gorm.DB
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *gorm.DB) DepositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(deposit).Error
}

func (r *depositRepository) Save(ctx context.Context, deposit *models.Deposit) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(deposit).Error
}

func (r *depositRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Preload("Member").
		First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&deposit, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *depositRepository) FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("deposit_date DESC, created_at DESC").
		Find(&deposits).Error
	return deposits, err
}

func (r *depositRepository) FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("status = ? AND financial_year = ?", status, year).
		Order("deposit_date ASC, created_at ASC").
		Find(&deposits).Error
	return deposits, err
}

var depositSortable = map[string]bool{"deposit_date": true, "amount": true, "created_at": true, "status": true}

func (r *depositRepository) List(ctx context.Context, query *ListQuery) ([]models.Deposit, int64, error) {
	var deposits []models.Deposit
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Deposit{})

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

	err := paginate(db.Preload("Member"), query, depositSortable, "deposit_date DESC, created_at DESC").
		Find(&deposits).Error
	return deposits, total, err
}

func (r *depositRepository) Sum(ctx context.Context, statuses []string, year string) (Totals, error) {
	var totals Totals

	db := r.db.WithContext(ctx).
		Model(&models.Deposit{}).
		Select("COALESCE(SUM(amount), 0) AS principal, COALESCE(SUM(interest_earned), 0) AS interest, COUNT(*) AS count").
		Where("status IN ?", statuses)
	if year != "" {
		db = db.Where("financial_year = ?", year)
	}

	err := db.Scan(&totals).Error
	return totals, err
}
