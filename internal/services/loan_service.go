package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/gramin-ledger/internal/interest"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"github.com/sjperalta/gramin-ledger/internal/statemachine"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

const (
	entityLoan        = "loan"
	finalPaymentNote  = "Final payment - Loan closed"
	carryForwardNotes = "Carried forward from loan %s (%s)"
)

type LoanService struct {
	repos       *repository.Repositories
	defaultRate decimal.Decimal
	now         Clock
}

func NewLoanService(repos *repository.Repositories, defaultRate decimal.Decimal, clock Clock) *LoanService {
	return &LoanService{
		repos:       repos,
		defaultRate: defaultRate,
		now:         clock,
	}
}

// CreateLoanInput holds the fields for a new loan. A nil rate uses the configured default.
type CreateLoanInput struct {
	MemberID     uuid.UUID
	Amount       decimal.Decimal
	LoanDate     time.Time
	InterestRate *decimal.Decimal
	Notes        *string
	Actor        string
}

// UpdateLoanInput holds editable fields of an ACTIVE loan. A nil member keeps the current borrower.
type UpdateLoanInput struct {
	Amount   decimal.Decimal
	LoanDate time.Time
	MemberID *uuid.UUID
	Actor    string
}

// PaymentInput is one repayment. A zero date means today.
type PaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate time.Time
	Discount    decimal.Decimal
	Notes       *string
	Actor       string
}

// CloseLoanInput closes a loan by hand, optionally recording a last payment.
type CloseLoanInput struct {
	ReturnDate   time.Time
	FinalPayment *decimal.Decimal
	Discount     *decimal.Decimal
	Notes        *string
	Actor        string
}

// PaymentResult is the loan after a payment together with the appended record
type PaymentResult struct {
	Loan    *models.Loan
	Payment *models.LoanPayment
}

// CarryForwardResult pairs the closed loan with its continuation. Next is nil when nothing was owed.
type CarryForwardResult struct {
	Previous *models.Loan
	Next     *models.Loan
}

// Create opens an ACTIVE loan owing its full principal.
func (s *LoanService) Create(ctx context.Context, input CreateLoanInput) (*models.Loan, error) {
	amount, err := validatePrincipal(input.Amount, input.LoanDate)
	if err != nil {
		return nil, err
	}
	rate, err := resolveRate(input.InterestRate, s.defaultRate)
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		MemberID:        input.MemberID,
		LoanAmount:      amount,
		LoanDate:        interest.DateOf(input.LoanDate),
		InterestRate:    rate,
		FinancialYear:   interest.FinancialYearOf(input.LoanDate),
		Status:          models.LoanStatusActive,
		InterestAmount:  decimal.Zero,
		TotalRepayment:  decimal.Zero,
		DiscountAmount:  decimal.Zero,
		PaidAmount:      decimal.Zero,
		RemainingAmount: amount,
		Notes:           input.Notes,
	}

	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if _, err := tx.Member.FindByID(ctx, input.MemberID); err != nil {
			return notFound(err, "member")
		}
		if err := tx.Loan.Create(ctx, loan); err != nil {
			return err
		}
		return recordAudit(ctx, tx, input.Actor, models.AuditActionCreate, entityLoan, loan.ID.String(),
			"amount=%s date=%s rate=%s", loan.LoanAmount, loan.LoanDate.Format(dateLayout), loan.InterestRate)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Loan created", "loan_id", loan.ID, "member_id", loan.MemberID, "amount", loan.LoanAmount)
	return loan, nil
}

// Update edits an ACTIVE loan. Remaining becomes amount minus paid; discounts are reconciled
// only once interest is known.
func (s *LoanService) Update(ctx context.Context, id uuid.UUID, input UpdateLoanInput) (*models.Loan, error) {
	amount, err := validatePrincipal(input.Amount, input.LoanDate)
	if err != nil {
		return nil, err
	}

	var loan *models.Loan
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		loan, err = tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityLoan)
		}
		if !loan.IsActive() {
			return invalidStatef("loan %s is %s", loan.ID, loan.Status)
		}
		if input.MemberID != nil {
			if _, err := tx.Member.FindByID(ctx, *input.MemberID); err != nil {
				return notFound(err, "member")
			}
			loan.MemberID = *input.MemberID
		}

		loan.LoanAmount = amount
		loan.LoanDate = interest.DateOf(input.LoanDate)
		loan.FinancialYear = interest.FinancialYearOf(input.LoanDate)
		loan.RemainingAmount = loan.LoanAmount.Sub(loan.PaidAmount)

		if err := tx.Loan.Save(ctx, loan); err != nil {
			return err
		}
		return recordAudit(ctx, tx, input.Actor, models.AuditActionUpdate, entityLoan, loan.ID.String(),
			"amount=%s date=%s remaining=%s", loan.LoanAmount, loan.LoanDate.Format(dateLayout), loan.RemainingAmount)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// AddPayment applies a repayment and discount against interest accrued up to the payment date.
// The loan closes when payments and discounts cover principal plus that interest.
func (s *LoanService) AddPayment(ctx context.Context, id uuid.UUID, input PaymentInput) (*PaymentResult, error) {
	amount, err := positiveAmount(input.Amount, "payment amount")
	if err != nil {
		return nil, err
	}
	if input.Discount.IsNegative() {
		return nil, validationError("discount must not be negative")
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now.today()
	}
	paymentDate = interest.DateOf(paymentDate)

	result := &PaymentResult{}
	err = s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		loan, err := tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityLoan)
		}
		if !loan.MayAcceptPayment() {
			return invalidStatef("loan %s is %s", loan.ID, loan.Status)
		}

		current, err := interest.Calculate(loan.LoanAmount, loan.LoanDate, paymentDate, loan.InterestRate)
		if err != nil {
			return computationError(ctx, "loan payment "+loan.ID.String(), err)
		}
		totalOwed := loan.LoanAmount.Add(current)

		payment := &models.LoanPayment{
			LoanID:          loan.ID,
			PaymentAmount:   amount,
			PaymentDate:     paymentDate,
			DiscountApplied: input.Discount.Round(2),
			Notes:           input.Notes,
			CreatedBy:       actorOrDefault(input.Actor),
		}
		if err := tx.Loan.CreatePayment(ctx, payment); err != nil {
			return err
		}

		loan.PaidAmount = loan.PaidAmount.Add(payment.PaymentAmount)
		loan.DiscountAmount = loan.DiscountAmount.Add(payment.DiscountApplied)
		loan.RemainingAmount = totalOwed.Sub(loan.Settled())

		if !loan.RemainingAmount.IsPositive() {
			if err := statemachine.NewLoanFSM(loan).Close(ctx); err != nil {
				return invalidState(err)
			}
			loan.ReturnDate = &paymentDate
			loan.InterestAmount = current
			loan.TotalRepayment = totalOwed
			loan.RemainingAmount = decimal.Zero
		}

		if err := tx.Loan.Save(ctx, loan); err != nil {
			return err
		}

		result.Loan = loan
		result.Payment = payment
		return recordAudit(ctx, tx, input.Actor, models.AuditActionPayment, entityLoan, loan.ID.String(),
			"payment=%s discount=%s remaining=%s status=%s", payment.PaymentAmount, payment.DiscountApplied, loan.RemainingAmount, loan.Status)
	})
	if err != nil {
		return nil, err
	}

	if !result.Loan.IsActive() {
		logger.Info("Loan closed by payment", "loan_id", result.Loan.ID, "total_repayment", result.Loan.TotalRepayment)
	}
	return result, nil
}

// Close fixes interest at the return date and closes the loan with nothing remaining.
// A zero return date means today. The final payment, if any, is recorded on the ledger.
func (s *LoanService) Close(ctx context.Context, id uuid.UUID, input CloseLoanInput) (*models.Loan, error) {
	var finalPayment *decimal.Decimal
	if input.FinalPayment != nil {
		amount, err := positiveAmount(*input.FinalPayment, "final payment")
		if err != nil {
			return nil, err
		}
		finalPayment = &amount
	}
	if input.Discount != nil && input.Discount.IsNegative() {
		return nil, validationError("discount must not be negative")
	}

	returnDate := input.ReturnDate
	if returnDate.IsZero() {
		returnDate = s.now.today()
	}
	returnDate = interest.DateOf(returnDate)

	var loan *models.Loan
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		loan, err = tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityLoan)
		}
		if err := statemachine.NewLoanFSM(loan).Close(ctx); err != nil {
			return invalidState(err)
		}

		accrued, err := interest.Calculate(loan.LoanAmount, loan.LoanDate, returnDate, loan.InterestRate)
		if err != nil {
			return computationError(ctx, "close loan "+loan.ID.String(), err)
		}

		discount := decimal.Zero
		if input.Discount != nil {
			discount = input.Discount.Round(2)
		}

		if finalPayment != nil {
			notes := input.Notes
			if notes == nil {
				text := finalPaymentNote
				notes = &text
			}
			payment := &models.LoanPayment{
				LoanID:          loan.ID,
				PaymentAmount:   *finalPayment,
				PaymentDate:     returnDate,
				DiscountApplied: discount,
				Notes:           notes,
				CreatedBy:       actorOrDefault(input.Actor),
			}
			if err := tx.Loan.CreatePayment(ctx, payment); err != nil {
				return err
			}
			loan.PaidAmount = loan.PaidAmount.Add(payment.PaymentAmount)
		}

		loan.DiscountAmount = loan.DiscountAmount.Add(discount)
		loan.ReturnDate = &returnDate
		loan.InterestAmount = accrued
		loan.TotalRepayment = loan.LoanAmount.Add(accrued)
		loan.RemainingAmount = decimal.Zero

		if err := tx.Loan.Save(ctx, loan); err != nil {
			return err
		}
		return recordAudit(ctx, tx, input.Actor, models.AuditActionClose, entityLoan, loan.ID.String(),
			"date=%s interest=%s total=%s paid=%s discount=%s",
			returnDate.Format(dateLayout), accrued, loan.TotalRepayment, loan.PaidAmount, loan.DiscountAmount)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Loan closed", "loan_id", loan.ID, "interest", loan.InterestAmount, "total_repayment", loan.TotalRepayment)
	return loan, nil
}

// CarryForward fixes interest at carryDate, marks the loan CARRIED_FORWARD and opens a new
// loan in nextYear for principal + interest - paid, dated the following day.
// When nothing is owed the loan is settled instead and no new loan is opened.
func (s *LoanService) CarryForward(ctx context.Context, id uuid.UUID, nextYear string, carryDate time.Time) (*CarryForwardResult, error) {
	if _, err := interest.ParseFinancialYear(nextYear); err != nil {
		return nil, validationError("%v", err)
	}
	carryDate = interest.DateOf(carryDate)

	result := &CarryForwardResult{}
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		old, err := tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityLoan)
		}
		if !old.MayClose() {
			return invalidStatef("loan %s is %s", old.ID, old.Status)
		}

		accrued, err := interest.Calculate(old.LoanAmount, old.LoanDate, carryDate, old.InterestRate)
		if err != nil {
			return computationError(ctx, "carry forward loan "+old.ID.String(), err)
		}
		total := old.LoanAmount.Add(accrued)
		principal := total.Sub(old.PaidAmount)

		machine := statemachine.NewLoanFSM(old)
		if principal.IsPositive() {
			err = machine.CarryForward(ctx)
		} else {
			err = machine.Settle(ctx)
		}
		if err != nil {
			return invalidState(err)
		}

		old.ReturnDate = &carryDate
		old.InterestAmount = accrued
		old.TotalRepayment = total
		old.RemainingAmount = decimal.Zero
		if err := tx.Loan.Save(ctx, old); err != nil {
			return err
		}
		result.Previous = old

		if !principal.IsPositive() {
			return recordAudit(ctx, tx, SettlementActor, models.AuditActionSettle, entityLoan, old.ID.String(),
				"nothing owed at %s, settled", carryDate.Format(dateLayout))
		}

		notes := fmt.Sprintf(carryForwardNotes, old.ID, old.FinancialYear)
		oldID := old.ID
		next := &models.Loan{
			MemberID:             old.MemberID,
			LoanAmount:           principal,
			LoanDate:             carryDate.AddDate(0, 0, 1),
			InterestRate:         s.defaultRate,
			FinancialYear:        nextYear,
			Status:               models.LoanStatusActive,
			InterestAmount:       decimal.Zero,
			TotalRepayment:       decimal.Zero,
			DiscountAmount:       decimal.Zero,
			PaidAmount:           decimal.Zero,
			RemainingAmount:      principal,
			Notes:                &notes,
			CarriedForwardFromID: &oldID,
		}
		if err := tx.Loan.Create(ctx, next); err != nil {
			return err
		}
		result.Next = next

		return recordAudit(ctx, tx, SettlementActor, models.AuditActionCarryForward, entityLoan, old.ID.String(),
			"interest=%s paid=%s new_loan=%s new_principal=%s year=%s",
			accrued, old.PaidAmount, next.ID, principal, nextYear)
	})
	if err != nil {
		return nil, err
	}

	if result.Next != nil {
		logger.Info("Loan carried forward",
			"loan_id", result.Previous.ID,
			"new_loan_id", result.Next.ID,
			"new_principal", result.Next.LoanAmount,
			"financial_year", nextYear,
		)
	}
	return result, nil
}

// Settle force-closes an ACTIVE loan at settlementDate without recording payments.
// Whatever was still owed stays visible in the remaining amount.
func (s *LoanService) Settle(ctx context.Context, id uuid.UUID, settlementDate time.Time) (*models.Loan, error) {
	settlementDate = interest.DateOf(settlementDate)

	var loan *models.Loan
	err := s.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		loan, err = tx.Loan.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, entityLoan)
		}
		if err := statemachine.NewLoanFSM(loan).Settle(ctx); err != nil {
			return invalidState(err)
		}

		accrued, err := interest.Calculate(loan.LoanAmount, loan.LoanDate, settlementDate, loan.InterestRate)
		if err != nil {
			return computationError(ctx, "settle loan "+loan.ID.String(), err)
		}

		loan.ReturnDate = &settlementDate
		loan.InterestAmount = accrued
		loan.TotalRepayment = loan.LoanAmount.Add(accrued)
		loan.RemainingAmount = decimal.Max(loan.TotalRepayment.Sub(loan.Settled()), decimal.Zero)

		if err := tx.Loan.Save(ctx, loan); err != nil {
			return err
		}
		return recordAudit(ctx, tx, SettlementActor, models.AuditActionSettle, entityLoan, loan.ID.String(),
			"date=%s interest=%s total=%s remaining=%s",
			settlementDate.Format(dateLayout), accrued, loan.TotalRepayment, loan.RemainingAmount)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Loan settled", "loan_id", loan.ID, "interest", loan.InterestAmount, "remaining", loan.RemainingAmount)
	return loan, nil
}

// PaymentHistory returns the loan's payments newest first
func (s *LoanService) PaymentHistory(ctx context.Context, id uuid.UUID) ([]models.LoanPaymentResponse, error) {
	if _, err := s.repos.Loan.FindByID(ctx, id); err != nil {
		return nil, notFound(err, entityLoan)
	}

	payments, err := s.repos.Loan.FindPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]models.LoanPaymentResponse, len(payments))
	for i := range payments {
		responses[i] = payments[i].ToResponse()
	}
	return responses, nil
}

// FindByID returns the loan with its as-of-today projection
func (s *LoanService) FindByID(ctx context.Context, id uuid.UUID) (*models.LoanResponse, error) {
	loan, err := s.repos.Loan.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, entityLoan)
	}
	resp := loan.ToResponse(s.now.today())
	return &resp, nil
}

// Project renders a loan as returned by the read endpoints, as of today
func (s *LoanService) Project(loan *models.Loan) models.LoanResponse {
	return loan.ToResponse(s.now.today())
}

// List returns a page of loan projections
func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.LoanResponse, int64, error) {
	loans, total, err := s.repos.Loan.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	today := s.now.today()
	responses := make([]models.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = loans[i].ToResponse(today)
	}
	return responses, total, nil
}
