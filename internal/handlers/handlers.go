package handlers

import (
	"github.com/sjperalta/gramin-ledger/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health     *HealthHandler
	Member     *MemberHandler
	Deposit    *DepositHandler
	Loan       *LoanHandler
	Settlement *SettlementHandler
	Report     *ReportHandler
	Audit      *AuditHandler
	Job        *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(),
		Member:     NewMemberHandler(svcs.Member),
		Deposit:    NewDepositHandler(svcs.Deposit),
		Loan:       NewLoanHandler(svcs.Loan),
		Settlement: NewSettlementHandler(svcs.Settlement, svcs.Job),
		Report:     NewReportHandler(svcs.Report, svcs.Export),
		Audit:      NewAuditHandler(svcs.Audit),
		Job:        NewJobHandler(svcs.Job),
	}
}
