package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"github.com/sjperalta/gramin-ledger/internal/statemachine"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

const entityDeposit = "deposit"

type DepositService struct {
	repos       *repository.Repositories
	defaultRate decimal.Decimal
	now         Clock
}

func NewDepositService(repos *repository.Repositories, defaultRate decimal.Decimal, clock Clock) *DepositService {
	return &DepositService{
		repos:       repos,
		defaultRate: defaultRate,
		now:         clock,
	}
}

// CreateDepositInput holds the fields for a new deposit. A nil rate uses the configured default.
type CreateDepositInput struct {
	MemberID     uuid.UUID
	Amount       decimal.Decimal
	DepositDate  time.Time
	InterestRate *decimal.Decimal
	Actor        string
}

// UpdateDepositInput holds editable fields of an ACTIVE deposit. A nil member keeps the current owner.
type UpdateDepositInput struct {
	Amount      decimal.Decimal
	DepositDate time.Time
	MemberID    *uuid.UUID
	Actor       string
}

// Create opens an ACTIVE deposit with no interest fixed yet.
func (s *DepositService) Create(ctx context.Context, input CreateDepositInput) (*models.Deposit, error) {
	amount, err := validatePrincipal(input.Amount, input.DepositDate)
	if err != nil {
		return nil, err
	}
	rate, err := resolveRate(input.InterestRate, s.defaultRate)
	if err != nil {
		return nil, err
	}

	deposit := &models.Deposit{
		MemberID:       input.MemberID,
		Amount:         amount,
		DepositDate:    interest.DateOf(input.DepositDate),
		InterestRate:   rate,
		FinancialYear:  interest.FinancialYearOf(input.DepositDate),
		Status:         models.DepositStatusActive,
		InterestEarned: decimal.Zero,
		TotalAmount:    decimal.Zero,
	}

	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Member.FindByID(ctx, input.MemberID); err != nil {
			return notFound(err, "member")
		}
		if err := tx.Deposit.Create(ctx, deposit); err != nil {
			return err
		}
		return recordAudit(ctx, tx, input.Actor, models.AuditActionCreate, entityDeposit, deposit.ID.String(),
			"amount=%s date=%s rate=%s", deposit.Amount, deposit.DepositDate.Format(dateLayout), deposit.InterestRate)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deposit created", "deposit_id", deposit.ID, "member_id", deposit.MemberID, "amount", deposit.Amount)
	return deposit, nil
}

// Update edits amount, date and optionally owner of an ACTIVE deposit. Interest fields stay zero.
func (s *DepositService) Update(ctx context.Context, id uuid.UUID, input UpdateDepositInput) (*models.Deposit, error) {
	amount, err := validatePrincipal(input.Amount, input.DepositDate)
	if err != nil {
		return nil, err
	}

	var deposit *models.Deposit
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		deposit, err = tx.Deposit.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityDeposit)
		}
		if !deposit.MayEdit() {
			return invalidStatef("deposit %s is %s", deposit.ID, deposit.Status)
		}
		if input.MemberID != nil {
			if _, err := tx.Member.FindByID(ctx, *input.MemberID); err != nil {
				return notFound(err, "member")
			}
			deposit.MemberID = *input.MemberID
		}

		deposit.Amount = amount
		deposit.DepositDate = interest.DateOf(input.DepositDate)
		deposit.FinancialYear = interest.FinancialYearOf(input.DepositDate)

		if err := tx.Deposit.Save(ctx, deposit); err != nil {
			return err
		}
		return recordAudit(ctx, tx, input.Actor, models.AuditActionUpdate, entityDeposit, deposit.ID.String(),
			"amount=%s date=%s", deposit.Amount, deposit.DepositDate.Format(dateLayout))
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// Close returns an ACTIVE deposit to its member, fixing interest at returnDate.
// A zero returnDate means today. Closing twice fails with ErrInvalidState.
func (s *DepositService) Close(ctx context.Context, id uuid.UUID, returnDate time.Time, actor string) (*models.Deposit, error) {
	if returnDate.IsZero() {
		returnDate = s.now.today()
	}
	return s.finish(ctx, id, interest.DateOf(returnDate), actor, models.AuditActionReturn, (*statemachine.DepositFSM).Return)
}

// Settle is the yearly sweep's close. Already closed deposits fail with ErrInvalidState, which the sweep skips.
func (s *DepositService) Settle(ctx context.Context, id uuid.UUID, settlementDate time.Time) (*models.Deposit, error) {
	return s.finish(ctx, id, interest.DateOf(settlementDate), SettlementActor, models.AuditActionSettle, (*statemachine.DepositFSM).Settle)
}

func (s *DepositService) finish(
	ctx context.Context,
	id uuid.UUID,
	date time.Time,
	actor, action string,
	transition func(*statemachine.DepositFSM, context.Context) error,
) (*models.Deposit, error) {
	var deposit *models.Deposit
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		deposit, err = tx.Deposit.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityDeposit)
		}

		if err := transition(statemachine.NewDepositFSM(deposit), ctx); err != nil {
			return invalidState(err)
		}

		earned, err := interest.Calculate(deposit.Amount, deposit.DepositDate, date, deposit.InterestRate)
		if err != nil {
			return computationError(ctx, "close deposit "+deposit.ID.String(), err)
		}
		deposit.ReturnDate = &date
		deposit.InterestEarned = earned
		deposit.TotalAmount = deposit.Amount.Add(earned)

		if err := tx.Deposit.Save(ctx, deposit); err != nil {
			return err
		}
		return recordAudit(ctx, tx, actor, action, entityDeposit, deposit.ID.String(),
			"status=%s date=%s interest=%s total=%s", deposit.Status, date.Format(dateLayout), earned, deposit.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deposit closed",
		"deposit_id", deposit.ID,
		"status", deposit.Status,
		"interest", deposit.InterestEarned,
		"total", deposit.TotalAmount,
	)
	return deposit, nil
}

// FindByID returns the deposit with its as-of-today projection
func (s *DepositService) FindByID(ctx context.Context, id uuid.UUID) (*models.DepositResponse, error) {
	deposit, err := s.repos.Deposit.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityDeposit)
	}
	resp := deposit.ToResponse(s.now.today())
	return &resp, nil
}

// Project renders a deposit as returned by the read endpoints, as of today
func (s *DepositService) Project(deposit *models.Deposit) models.DepositResponse {
	return deposit.ToResponse(s.now.today())
}

// List returns a page of deposit projections
func (s *DepositService) List(ctx context.Context, query *repository.ListQuery) ([]models.DepositResponse, int64, error) {
	deposits, total, err := s.repos.Deposit.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	today := s.now.today()
	responses := make([]models.DepositResponse, len(deposits))
	for i := range deposits {
		responses[i] = deposits[i].ToResponse(today)
	}
	return responses, total, nil
}
