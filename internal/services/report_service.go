package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"gorm.io/gorm"
)

type ReportService struct {
	repos *repository.Repositories
	now   Clock
}

func NewReportService(repos *repository.Repositories, clock Clock) *ReportService {
	return &ReportService{repos: repos, now: clock}
}

// MemberStatement lists everything a member holds or owes as of a date
type MemberStatement struct {
	MemberID           uuid.UUID                `json:"member_id"`
	Name               string                   `json:"name"`
	Phone              *string                  `json:"phone"`
	AsOf               time.Time                `json:"as_of"`
	Deposits           []models.DepositResponse `json:"deposits"`
	Loans              []models.LoanResponse    `json:"loans"`
	TotalDeposited     decimal.Decimal          `json:"total_deposited"`
	TotalBorrowed      decimal.Decimal          `json:"total_borrowed"`
	ActiveDepositValue decimal.Decimal          `json:"active_deposit_value"`
	ActiveLoanValue    decimal.Decimal          `json:"active_loan_value"`
	OutstandingBalance decimal.Decimal          `json:"outstanding_balance"`
}

// SettlementReport is a financial year's aggregates. Settled is false when the figures
// were computed from records because no settlement has been written for the year.
type SettlementReport struct {
	models.FinancialYear
	Settled      bool                     `json:"settled"`
	DepositCount int                      `json:"deposit_count"`
	LoanCount    int                      `json:"loan_count"`
	Deposits     []models.DepositResponse `json:"deposits"`
	Loans        []models.LoanResponse    `json:"loans"`
}

// Summary holds dashboard figures. Available balance counts active principal only.
type Summary struct {
	FinancialYear          string          `json:"financial_year"`
	AsOf                   time.Time       `json:"as_of"`
	ActiveDeposits         int64           `json:"active_deposits"`
	ActiveDepositPrincipal decimal.Decimal `json:"active_deposit_principal"`
	ActiveLoans            int64           `json:"active_loans"`
	ActiveLoanPrincipal    decimal.Decimal `json:"active_loan_principal"`
	AvailableBalance       decimal.Decimal `json:"available_balance"`
}

var (
	activeDepositStatuses = []string{models.DepositStatusActive}
	activeLoanStatuses    = []string{models.LoanStatusActive}
)

// MemberStatement builds a member's statement as of today
func (s *ReportService) MemberStatement(ctx context.Context, memberID uuid.UUID) (*MemberStatement, error) {
	member, err := s.repos.Member.FindByID(ctx, memberID)
	if err != nil {
		return nil, notFound(err, "member")
	}
	deposits, err := s.repos.Deposit.FindByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	loans, err := s.repos.Loan.FindByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	today := s.now.today()
	statement := &MemberStatement{
		MemberID:           member.ID,
		Name:               member.FullName(),
		Phone:              member.Phone,
		AsOf:               today,
		Deposits:           make([]models.DepositResponse, 0, len(deposits)),
		Loans:              make([]models.LoanResponse, 0, len(loans)),
		TotalDeposited:     decimal.Zero,
		TotalBorrowed:      decimal.Zero,
		ActiveDepositValue: decimal.Zero,
		ActiveLoanValue:    decimal.Zero,
		OutstandingBalance: decimal.Zero,
	}

	for i := range deposits {
		deposits[i].Member = member
		resp := deposits[i].ToResponse(today)
		statement.Deposits = append(statement.Deposits, resp)
		statement.TotalDeposited = statement.TotalDeposited.Add(resp.Amount)
		if resp.CurrentTotal != nil {
			statement.ActiveDepositValue = statement.ActiveDepositValue.Add(*resp.CurrentTotal)
		}
	}

	for i := range loans {
		loans[i].Member = member
		resp := loans[i].ToResponse(today)
		statement.Loans = append(statement.Loans, resp)
		statement.TotalBorrowed = statement.TotalBorrowed.Add(resp.LoanAmount)
		if resp.CurrentTotal != nil {
			statement.ActiveLoanValue = statement.ActiveLoanValue.Add(*resp.CurrentTotal)
			statement.OutstandingBalance = statement.OutstandingBalance.Add(*resp.CurrentRemaining)
		}
	}

	return statement, nil
}

// YearlySettlementReport returns the written record for year, or figures computed from its
// settled records when the year has not been settled. An empty year means the current one.
func (s *ReportService) YearlySettlementReport(ctx context.Context, year string) (*SettlementReport, error) {
	if year == "" {
		year = interest.FinancialYearOf(s.now.today())
	}
	if _, err := interest.ParseFinancialYear(year); err != nil {
		return nil, validationError("%v", err)
	}

	report := &SettlementReport{}
	record, err := s.repos.FinancialYear.FindByYear(ctx, year)
	switch {
	case err == nil:
		report.FinancialYear = *record
		report.Settled = record.IsSettled()
	case errors.Is(err, gorm.ErrRecordNotFound):
		computed, err := aggregateYear(ctx, s.repos, year)
		if err != nil {
			return nil, err
		}
		report.FinancialYear = *computed
	default:
		return nil, err
	}

	today := s.now.today()

	depositQuery := repository.NewListQuery()
	depositQuery.PerPage = 0
	depositQuery.Filters["financial_year"] = year
	depositQuery.Filters["status_in"] = strings.Join(settledDepositStatuses, ",")
	deposits, _, err := s.repos.Deposit.List(ctx, depositQuery)
	if err != nil {
		return nil, err
	}

	loanQuery := repository.NewListQuery()
	loanQuery.PerPage = 0
	loanQuery.Filters["financial_year"] = year
	loanQuery.Filters["status_in"] = strings.Join(settledLoanStatuses, ",")
	loans, _, err := s.repos.Loan.List(ctx, loanQuery)
	if err != nil {
		return nil, err
	}

	report.Deposits = make([]models.DepositResponse, len(deposits))
	for i := range deposits {
		report.Deposits[i] = deposits[i].ToResponse(today)
	}
	report.Loans = make([]models.LoanResponse, len(loans))
	for i := range loans {
		report.Loans[i] = loans[i].ToResponse(today)
	}
	report.DepositCount = len(deposits)
	report.LoanCount = len(loans)

	return report, nil
}

// Summary returns the dashboard figures for today
func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	deposits, err := s.repos.Deposit.Sum(ctx, activeDepositStatuses, "")
	if err != nil {
		return nil, err
	}
	loans, err := s.repos.Loan.Sum(ctx, activeLoanStatuses, "")
	if err != nil {
		return nil, err
	}

	today := s.now.today()
	return &Summary{
		FinancialYear:          interest.FinancialYearOf(today),
		AsOf:                   today,
		ActiveDeposits:         deposits.Count,
		ActiveDepositPrincipal: deposits.Principal,
		ActiveLoans:            loans.Count,
		ActiveLoanPrincipal:    loans.Principal,
		AvailableBalance:       deposits.Principal.Sub(loans.Principal),
	}, nil
}

// PublicDeposits lists deposits with member names masked
func (s *ReportService) PublicDeposits(ctx context.Context, query *repository.ListQuery) ([]models.MaskedDepositResponse, int64, error) {
	deposits, total, err := s.repos.Deposit.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	masked := make([]models.MaskedDepositResponse, len(deposits))
	for i := range deposits {
		masked[i] = deposits[i].ToMaskedResponse()
	}
	return masked, total, nil
}

// PublicLoans lists loans with member names masked
func (s *ReportService) PublicLoans(ctx context.Context, query *repository.ListQuery) ([]models.MaskedLoanResponse, int64, error) {
	loans, total, err := s.repos.Loan.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	masked := make([]models.MaskedLoanResponse, len(loans))
	for i := range loans {
		masked[i] = loans[i].ToMaskedResponse()
	}
	return masked, total, nil
}
