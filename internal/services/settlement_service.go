package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/config"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
	"gorm.io/gorm"
)

var (
	settledDepositStatuses = []string{models.DepositStatusSettled}
	settledLoanStatuses    = []string{models.LoanStatusCarriedForward, models.LoanStatusSettled}
)

// SettlementService runs the yearly sweep that closes every ACTIVE deposit and loan of a
// financial year and writes the year's aggregates.
type SettlementService struct {
	repos    *repository.Repositories
	deposits *DepositService
	loans    *LoanService
	loanMode config.LoanSettlementMode
	now      Clock

	mu sync.Mutex
}

func NewSettlementService(
	repos *repository.Repositories,
	deposits *DepositService,
	loans *LoanService,
	loanMode config.LoanSettlementMode,
	clock Clock,
) *SettlementService {
	return &SettlementService{
		repos:    repos,
		deposits: deposits,
		loans:    loans,
		loanMode: loanMode,
		now:      clock,
	}
}

// SettlementResult describes one settlement run
type SettlementResult struct {
	RunID               uuid.UUID                 `json:"run_id"`
	Year                string                    `json:"year"`
	SettlementDate      time.Time                 `json:"settlement_date"`
	LoanMode            config.LoanSettlementMode `json:"loan_mode"`
	DepositsSettled     int                       `json:"deposits_settled"`
	LoansSettled        int                       `json:"loans_settled"`
	LoansCarriedForward int                       `json:"loans_carried_forward"`
	Skipped             int                       `json:"skipped"`
	Record              *models.FinancialYear     `json:"financial_year"`
}

// Processed counts records moved out of ACTIVE by this run
func (r *SettlementResult) Processed() int {
	return r.DepositsSettled + r.LoansSettled + r.LoansCarriedForward
}

// RunYearlySettlement settles the financial year that contains today.
func (s *SettlementService) RunYearlySettlement(ctx context.Context) (*SettlementResult, error) {
	today := s.now.today()
	return s.run(ctx, interest.FinancialYearOf(today), today)
}

// RunSettlementForYear settles a given year label, still dated today.
func (s *SettlementService) RunSettlementForYear(ctx context.Context, year string) (*SettlementResult, error) {
	if _, err := interest.ParseFinancialYear(year); err != nil {
		return nil, validationError("%v", err)
	}
	return s.run(ctx, year, s.now.today())
}

// Run settles year, or the year containing today when year is empty.
func (s *SettlementService) Run(ctx context.Context, year string) (*SettlementResult, error) {
	if year == "" {
		return s.RunYearlySettlement(ctx)
	}
	return s.RunSettlementForYear(ctx, year)
}

func (s *SettlementService) run(ctx context.Context, year string, today time.Time) (*SettlementResult, error) {
	if !s.mu.TryLock() {
		return nil, invalidStatef("a settlement run is already in progress")
	}
	defer s.mu.Unlock()

	result := &SettlementResult{
		RunID:          uuid.New(),
		Year:           year,
		SettlementDate: today,
		LoanMode:       s.loanMode,
	}
	log := logger.Log.With("run_id", result.RunID, "financial_year", year)
	log.InfoContext(ctx, "Starting yearly settlement", "settlement_date", today.Format(dateLayout), "loan_mode", s.loanMode)

	if err := s.settleDeposits(ctx, result); err != nil {
		return nil, s.fail(ctx, result, "deposits", err)
	}
	log.InfoContext(ctx, "Deposits settled", "count", result.DepositsSettled)

	if err := s.settleLoans(ctx, result); err != nil {
		return nil, s.fail(ctx, result, "loans", err)
	}
	log.InfoContext(ctx, "Loans settled",
		"settled", result.LoansSettled,
		"carried_forward", result.LoansCarriedForward,
	)

	record, err := s.writeYear(ctx, result)
	if err != nil {
		return nil, s.fail(ctx, result, "financial year", err)
	}
	result.Record = record

	log.InfoContext(ctx, "Yearly settlement completed",
		"processed", result.Processed(),
		"skipped", result.Skipped,
		"total_deposits", record.TotalDeposits,
		"total_loans", record.TotalLoans,
		"interest_earned", record.TotalInterestEarned,
		"interest_paid", record.TotalInterestPaid,
		"net_balance", record.NetBalance,
	)
	return result, nil
}

func (s *SettlementService) settleDeposits(ctx context.Context, result *SettlementResult) error {
	deposits, err := s.repos.Deposit.FindByStatusAndYear(ctx, models.DepositStatusActive, result.Year)
	if err != nil {
		return err
	}

	for _, d := range deposits {
		_, err := s.deposits.Settle(ctx, d.ID, result.SettlementDate)
		switch {
		case errors.Is(err, ErrInvalidState):
			// closed by someone else since the query
			result.Skipped++
		case err != nil:
			return fmt.Errorf("deposit %s: %w", d.ID, err)
		default:
			result.DepositsSettled++
		}
	}
	return nil
}

func (s *SettlementService) settleLoans(ctx context.Context, result *SettlementResult) error {
	loans, err := s.repos.Loan.FindByStatusAndYear(ctx, models.LoanStatusActive, result.Year)
	if err != nil {
		return err
	}

	nextYear, err := interest.NextFinancialYear(result.Year)
	if err != nil {
		return err
	}

	for _, l := range loans {
		if s.loanMode == config.LoanModeSettle {
			_, err = s.loans.Settle(ctx, l.ID, result.SettlementDate)
			if err == nil {
				result.LoansSettled++
			}
		} else {
			var carried *CarryForwardResult
			carried, err = s.loans.CarryForward(ctx, l.ID, nextYear, result.SettlementDate)
			if err == nil {
				if carried.Next != nil {
					result.LoansCarriedForward++
				} else {
					result.LoansSettled++
				}
			}
		}

		if errors.Is(err, ErrInvalidState) {
			result.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("loan %s: %w", l.ID, err)
		}
	}
	return nil
}

// writeYear upserts the year's aggregates from the records already settled in it.
// A run that changed nothing leaves an existing record untouched.
func (s *SettlementService) writeYear(ctx context.Context, result *SettlementResult) (*models.FinancialYear, error) {
	existing, err := s.repos.FinancialYear.FindByYear(ctx, result.Year)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if result.Processed() == 0 && existing != nil {
		return existing, nil
	}

	record, err := aggregateYear(ctx, s.repos, result.Year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	}
	record.EndDate = result.SettlementDate
	record.IsActive = false
	settled := result.SettlementDate
	record.SettlementDate = &settled

	if err := s.repos.FinancialYear.Upsert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// aggregateYear sums the settled records of year. SettlementDate is left nil.
func aggregateYear(ctx context.Context, repos *repository.Repositories, year string) (*models.FinancialYear, error) {
	start, err := interest.FinancialYearStart(year)
	if err != nil {
		return nil, err
	}
	end, err := interest.FinancialYearEnd(year)
	if err != nil {
		return nil, err
	}

	deposits, err := repos.Deposit.Sum(ctx, settledDepositStatuses, year)
	if err != nil {
		return nil, err
	}
	loans, err := repos.Loan.Sum(ctx, settledLoanStatuses, year)
	if err != nil {
		return nil, err
	}

	return &models.FinancialYear{
		Year:                year,
		StartDate:           start,
		EndDate:             end,
		IsActive:            true,
		TotalDeposits:       deposits.Principal,
		TotalLoans:          loans.Principal,
		TotalInterestEarned: deposits.Interest,
		TotalInterestPaid:   loans.Interest,
		NetBalance:          loans.Interest.Sub(deposits.Interest),
	}, nil
}

func (s *SettlementService) fail(ctx context.Context, result *SettlementResult, phase string, err error) error {
	logger.Log.ErrorContext(ctx, "Yearly settlement failed",
		"run_id", result.RunID,
		"financial_year", result.Year,
		"phase", phase,
		"processed", result.Processed(),
		"error", err,
	)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("settlement_run", result.RunID.String())
		scope.SetTag("financial_year", result.Year)
		sentry.CaptureException(err)
	})
	return fmt.Errorf("settlement %s (%s): %w", result.Year, phase, err)
}
