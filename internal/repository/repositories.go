package repository

import (
	"context"

	"gorm.io/gorm"
)

// Transactor runs a unit of work inside one database transaction.
// The repositories handed to fn are bound to that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *Repositories) error) error
}

// Repositories holds all repository instances
type Repositories struct {
	Member        MemberRepository
	Deposit       DepositRepository
	Loan          LoanRepository
	FinancialYear FinancialYearRepository
	Audit         AuditRepository
	Tx            Transactor
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Member:        NewMemberRepository(db),
		Deposit:       NewDepositRepository(db),
		Loan:          NewLoanRepository(db),
		FinancialYear: NewFinancialYearRepository(db),
		Audit:         NewAuditRepository(db),
		Tx:            &gormTransactor{db: db},
	}
}

type gormTransactor struct {
	db *gorm.DB
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the first row of the requested page
func (q *ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// paginate applies sorting and pagination. Unknown sort columns fall back to fallback.
func paginate(db *gorm.DB, query *ListQuery, sortable map[string]bool, fallback string) *gorm.DB {
	order := fallback
	if query.SortBy != "" && sortable[query.SortBy] {
		order = query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
	}
	db = db.Order(order)

	if query.PerPage > 0 {
		db = db.Offset(query.Offset()).Limit(query.PerPage)
	}
	return db
}
