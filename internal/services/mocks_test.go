package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/config"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"gorm.io/gorm"
)

// memoryStore backs the mock repositories. Transactions are serialized and roll back
// every table when the unit of work fails.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	members  map[uuid.UUID]models.Member
	deposits map[uuid.UUID]models.Deposit
	loans    map[uuid.UUID]models.Loan
	payments []models.LoanPayment
	years    map[string]models.FinancialYear
	audits   []models.AuditLog

	// failLoanSave makes Loan.Save fail for the given id
	failLoanSave uuid.UUID
	// onSweep runs when the settlement queries ACTIVE deposits
	onSweep func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		members:  make(map[uuid.UUID]models.Member),
		deposits: make(map[uuid.UUID]models.Deposit),
		loans:    make(map[uuid.UUID]models.Loan),
		years:    make(map[string]models.FinancialYear),
	}
}

func (s *memoryStore) repositories() *repository.Repositories {
	return &repository.Repositories{
		Member:        &mockMemberRepository{store: s},
		Deposit:       &mockDepositRepository{store: s},
		Loan:          &mockLoanRepository{store: s},
		FinancialYear: &mockFinancialYearRepository{store: s},
		Audit:         &mockAuditRepository{store: s},
		Tx:            &mockTransactor{store: s},
	}
}

type snapshot struct {
	members  map[uuid.UUID]models.Member
	deposits map[uuid.UUID]models.Deposit
	loans    map[uuid.UUID]models.Loan
	payments []models.LoanPayment
	years    map[string]models.FinancialYear
	audits   []models.AuditLog
}

func (s *memoryStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		members:  make(map[uuid.UUID]models.Member, len(s.members)),
		deposits: make(map[uuid.UUID]models.Deposit, len(s.deposits)),
		loans:    make(map[uuid.UUID]models.Loan, len(s.loans)),
		payments: append([]models.LoanPayment(nil), s.payments...),
		years:    make(map[string]models.FinancialYear, len(s.years)),
		audits:   append([]models.AuditLog(nil), s.audits...),
	}
	for k, v := range s.members {
		snap.members[k] = v
	}
	for k, v := range s.deposits {
		snap.deposits[k] = v
	}
	for k, v := range s.loans {
		snap.loans[k] = v
	}
	for k, v := range s.years {
		snap.years[k] = v
	}
	return snap
}

func (s *memoryStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = snap.members
	s.deposits = snap.deposits
	s.loans = snap.loans
	s.payments = snap.payments
	s.years = snap.years
	s.audits = snap.audits
}

func (s *memoryStore) auditActions(entityID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []string
	for _, a := range s.audits {
		if a.EntityID == entityID.String() {
			actions = append(actions, a.Action)
		}
	}
	return actions
}

type mockTransactor struct {
	store *memoryStore
}

func (t *mockTransactor) WithinTransaction(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	if err := fn(t.store.repositories()); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// Mock MemberRepository
type mockMemberRepository struct {
	store *memoryStore
}

func (m *mockMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	member, ok := m.store.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &member, nil
}

func (m *mockMemberRepository) Create(ctx context.Context, member *models.Member) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	m.store.members[member.ID] = *member
	return nil
}

func (m *mockMemberRepository) List(ctx context.Context, query *repository.ListQuery) ([]models.Member, int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var members []models.Member
	for _, member := range m.store.members {
		members = append(members, member)
	}
	return members, int64(len(members)), nil
}

// Mock DepositRepository
type mockDepositRepository struct {
	store *memoryStore
}

func (m *mockDepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if deposit.ID == uuid.Nil {
		deposit.ID = uuid.New()
	}
	stored := *deposit
	stored.Member = nil
	m.store.deposits[deposit.ID] = stored
	return nil
}

func (m *mockDepositRepository) Save(ctx context.Context, deposit *models.Deposit) error {
	return m.Create(ctx, deposit)
}

func (m *mockDepositRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	deposit, ok := m.store.deposits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if member, ok := m.store.members[deposit.MemberID]; ok {
		deposit.Member = &member
	}
	return &deposit, nil
}

func (m *mockDepositRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	return m.FindByID(ctx, id)
}

func (m *mockDepositRepository) FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Deposit, error) {
	return m.filter(func(d models.Deposit) bool { return d.MemberID == memberID }), nil
}

func (m *mockDepositRepository) FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Deposit, error) {
	if m.store.onSweep != nil {
		m.store.onSweep()
	}
	return m.filter(func(d models.Deposit) bool { return d.Status == status && d.FinancialYear == year }), nil
}

func (m *mockDepositRepository) List(ctx context.Context, query *repository.ListQuery) ([]models.Deposit, int64, error) {
	statuses := listStatuses(query)
	deposits := m.filter(func(d models.Deposit) bool {
		if len(statuses) > 0 && !contains(statuses, d.Status) {
			return false
		}
		if y := query.Filters["financial_year"]; y != "" && d.FinancialYear != y {
			return false
		}
		if id := query.Filters["member_id"]; id != "" && d.MemberID.String() != id {
			return false
		}
		return true
	})
	return deposits, int64(len(deposits)), nil
}

func (m *mockDepositRepository) Sum(ctx context.Context, statuses []string, year string) (repository.Totals, error) {
	totals := repository.Totals{Principal: decimal.Zero, Interest: decimal.Zero}
	for _, d := range m.filter(func(d models.Deposit) bool {
		return contains(statuses, d.Status) && (year == "" || d.FinancialYear == year)
	}) {
		totals.Principal = totals.Principal.Add(d.Amount)
		totals.Interest = totals.Interest.Add(d.InterestEarned)
		totals.Count++
	}
	return totals, nil
}

func (m *mockDepositRepository) filter(keep func(models.Deposit) bool) []models.Deposit {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var deposits []models.Deposit
	for _, d := range m.store.deposits {
		if keep(d) {
			if member, ok := m.store.members[d.MemberID]; ok {
				d.Member = &member
			}
			deposits = append(deposits, d)
		}
	}
	sort.Slice(deposits, func(i, j int) bool {
		return deposits[i].DepositDate.Before(deposits[j].DepositDate)
	})
	return deposits
}

// Mock LoanRepository
type mockLoanRepository struct {
	store *memoryStore
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if loan.ID == uuid.Nil {
		loan.ID = uuid.New()
	}
	stored := *loan
	stored.Member = nil
	stored.Payments = nil
	m.store.loans[loan.ID] = stored
	return nil
}

func (m *mockLoanRepository) Save(ctx context.Context, loan *models.Loan) error {
	if m.store.failLoanSave != uuid.Nil && loan.ID == m.store.failLoanSave {
		return gorm.ErrInvalidTransaction
	}
	return m.Create(ctx, loan)
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	loan, ok := m.store.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if member, ok := m.store.members[loan.MemberID]; ok {
		loan.Member = &member
	}
	return &loan, nil
}

func (m *mockLoanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	return m.FindByID(ctx, id)
}

func (m *mockLoanRepository) FindByMember(ctx context.Context, memberID uuid.UUID) ([]models.Loan, error) {
	return m.filter(func(l models.Loan) bool { return l.MemberID == memberID }), nil
}

func (m *mockLoanRepository) FindByStatusAndYear(ctx context.Context, status, year string) ([]models.Loan, error) {
	return m.filter(func(l models.Loan) bool { return l.Status == status && l.FinancialYear == year }), nil
}

func (m *mockLoanRepository) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	statuses := listStatuses(query)
	loans := m.filter(func(l models.Loan) bool {
		if len(statuses) > 0 && !contains(statuses, l.Status) {
			return false
		}
		if y := query.Filters["financial_year"]; y != "" && l.FinancialYear != y {
			return false
		}
		if id := query.Filters["member_id"]; id != "" && l.MemberID.String() != id {
			return false
		}
		return true
	})
	return loans, int64(len(loans)), nil
}

func (m *mockLoanRepository) Sum(ctx context.Context, statuses []string, year string) (repository.Totals, error) {
	totals := repository.Totals{Principal: decimal.Zero, Interest: decimal.Zero}
	for _, l := range m.filter(func(l models.Loan) bool {
		return contains(statuses, l.Status) && (year == "" || l.FinancialYear == year)
	}) {
		totals.Principal = totals.Principal.Add(l.LoanAmount)
		totals.Interest = totals.Interest.Add(l.InterestAmount)
		totals.Count++
	}
	return totals, nil
}

func (m *mockLoanRepository) CreatePayment(ctx context.Context, payment *models.LoanPayment) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	m.store.payments = append(m.store.payments, *payment)
	return nil
}

func (m *mockLoanRepository) FindPayments(ctx context.Context, loanID uuid.UUID) ([]models.LoanPayment, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var payments []models.LoanPayment
	for i := len(m.store.payments) - 1; i >= 0; i-- {
		if m.store.payments[i].LoanID == loanID {
			payments = append(payments, m.store.payments[i])
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	return payments, nil
}

func (m *mockLoanRepository) filter(keep func(models.Loan) bool) []models.Loan {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var loans []models.Loan
	for _, l := range m.store.loans {
		if keep(l) {
			if member, ok := m.store.members[l.MemberID]; ok {
				l.Member = &member
			}
			loans = append(loans, l)
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].LoanDate.Before(loans[j].LoanDate)
	})
	return loans
}

// Mock FinancialYearRepository
type mockFinancialYearRepository struct {
	store *memoryStore
}

func (m *mockFinancialYearRepository) FindByYear(ctx context.Context, year string) (*models.FinancialYear, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	record, ok := m.store.years[year]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

func (m *mockFinancialYearRepository) Upsert(ctx context.Context, record *models.FinancialYear) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if existing, ok := m.store.years[record.Year]; ok {
		record.ID = existing.ID
	} else if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.store.years[record.Year] = *record
	return nil
}

func (m *mockFinancialYearRepository) List(ctx context.Context) ([]models.FinancialYear, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var records []models.FinancialYear
	for _, r := range m.store.years {
		records = append(records, r)
	}
	return records, nil
}

// Mock AuditRepository
type mockAuditRepository struct {
	store *memoryStore
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	entry.ID = uint(len(m.store.audits) + 1)
	m.store.audits = append(m.store.audits, *entry)
	return nil
}

func (m *mockAuditRepository) List(ctx context.Context, entity, entityID string, limit, offset int) ([]models.AuditLog, int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var logs []models.AuditLog
	for _, a := range m.store.audits {
		if (entity == "" || a.Entity == entity) && (entityID == "" || a.EntityID == entityID) {
			logs = append(logs, a)
		}
	}
	return logs, int64(len(logs)), nil
}

func listStatuses(query *repository.ListQuery) []string {
	if val := query.Filters["status_in"]; val != "" {
		return strings.Split(val, ",")
	}
	if val := query.Filters["status"]; val != "" {
		return []string{val}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Test fixtures

func date(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock(day string) Clock {
	t := date(day).Add(14 * time.Hour)
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type testEnv struct {
	store    *memoryStore
	repos    *repository.Repositories
	deposits *DepositService
	loans    *LoanService
	reports  *ReportService
	member   *models.Member
}

func newTestEnv(today string) *testEnv {
	store := newMemoryStore()
	repos := store.repositories()
	clock := fixedClock(today)

	member := &models.Member{
		ID:          uuid.New(),
		FirstName:   "Ramesh",
		LastName:    "Kumar",
		JoiningDate: date("2020-01-15"),
		IsActive:    true,
	}
	store.members[member.ID] = *member

	return &testEnv{
		store:    store,
		repos:    repos,
		deposits: NewDepositService(repos, dec("2.5"), clock),
		loans:    NewLoanService(repos, dec("5"), clock),
		reports:  NewReportService(repos, clock),
		member:   member,
	}
}

func (e *testEnv) settlement(mode config.LoanSettlementMode, today string) *SettlementService {
	return NewSettlementService(e.repos, e.deposits, e.loans, mode, fixedClock(today))
}

func (e *testEnv) seedDeposit(amount, day string) *models.Deposit {
	d, err := e.deposits.Create(context.Background(), CreateDepositInput{
		MemberID:    e.member.ID,
		Amount:      dec(amount),
		DepositDate: date(day),
	})
	if err != nil {
		panic(err)
	}
	return d
}

func (e *testEnv) seedLoan(amount, day string) *models.Loan {
	l, err := e.loans.Create(context.Background(), CreateLoanInput{
		MemberID: e.member.ID,
		Amount:   dec(amount),
		LoanDate: date(day),
	})
	if err != nil {
		panic(err)
	}
	return l
}

var zeroTime time.Time
