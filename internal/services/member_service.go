package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
)

// MemberService is the member directory used to validate deposit and loan owners
type MemberService struct {
	repo repository.MemberRepository
}

func NewMemberService(repo repository.MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// CreateMemberInput holds the fields accepted for a new member
type CreateMemberInput struct {
	FirstName   string
	LastName    string
	Phone       *string
	Address     *string
	JoiningDate time.Time
}

func (s *MemberService) Create(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" || last == "" {
		return nil, validationError("first and last name are required")
	}
	if input.JoiningDate.IsZero() {
		return nil, validationError("joining date is required")
	}

	member := &models.Member{
		FirstName:   first,
		LastName:    last,
		Phone:       input.Phone,
		Address:     input.Address,
		JoiningDate: input.JoiningDate,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "member")
	}
	return member, nil
}

func (s *MemberService) List(ctx context.Context, query *repository.ListQuery) ([]models.Member, int64, error) {
	return s.repo.List(ctx, query)
}
