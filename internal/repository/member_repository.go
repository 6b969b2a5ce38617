package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"gorm.io/gorm"
)

// MemberRepository defines the interface for member data access
type MemberRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	Create(ctx context.Context, member *models.Member) error
	List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

var memberSortable = map[string]bool{"first_name": true, "last_name": true, "joining_date": true, "created_at": true}

func (r *memberRepository) List(ctx context.Context, query *ListQuery) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Member{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ?", search, search, search)
	}

	switch query.Filters["active"] {
	case "true":
		db = db.Where("is_active = ?", true)
	case "false":
		db = db.Where("is_active = ?", false)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := paginate(db, query, memberSortable, "last_name, first_name").Find(&members).Error
	return members, total, err
}
