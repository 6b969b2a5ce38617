package services

import (
	"time"

	"github.com/sjperalta/gramin-ledger/internal/config"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"github.com/sjperalta/gramin-ledger/internal/jobs"
	"github.com/sjperalta/gramin-ledger/internal/repository"
)

// Clock returns the current instant. Services turn it into a calendar date once per operation.
type Clock func() time.Time

// ZonedClock returns a Clock reading wall time in loc, so "today" follows the ledger's local calendar.
func ZonedClock(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// today captures the calendar date for one operation
func (c Clock) today() time.Time {
	return interest.DateOf(c())
}

// Services holds all service instances
type Services struct {
	Member     *MemberService
	Deposit    *DepositService
	Loan       *LoanService
	Settlement *SettlementService
	Report     *ReportService
	Export     *ExportService
	Audit      *AuditService
	Job        *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, clock Clock) *Services {
	depositSvc := NewDepositService(repos, cfg.DepositMonthlyRate, clock)
	loanSvc := NewLoanService(repos, cfg.LoanMonthlyRate, clock)
	reportSvc := NewReportService(repos, clock)
	settlementSvc := NewSettlementService(repos, depositSvc, loanSvc, cfg.LoanSettlementMode, clock)

	return &Services{
		Member:     NewMemberService(repos.Member),
		Deposit:    depositSvc,
		Loan:       loanSvc,
		Settlement: settlementSvc,
		Report:     reportSvc,
		Export:     NewExportService(reportSvc, clock),
		Audit:      NewAuditService(repos.Audit),
		Job:        NewJobService(worker, settlementSvc, clock),
	}
}
