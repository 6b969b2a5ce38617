package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanService_Create(t *testing.T) {
	env := newTestEnv("2024-06-01")

	loan, err := env.loans.Create(context.Background(), CreateLoanInput{
		MemberID:     env.member.ID,
		Amount:       dec("10000"),
		LoanDate:     date("2024-04-01"),
		InterestRate: decPtr("4"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.Equal(t, "10000.00", loan.RemainingAmount.StringFixed(2))
	assert.Equal(t, "4.00", loan.InterestRate.StringFixed(2))
	assert.Equal(t, "2024-25", loan.FinancialYear)

	_, err = env.loans.Create(context.Background(), CreateLoanInput{
		MemberID: uuid.New(),
		Amount:   dec("10"),
		LoanDate: date("2024-04-01"),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_AddPayment_ClosesWhenFullyPaid(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	result, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{
		Amount:      dec("10500"),
		PaymentDate: date("2024-05-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusClosed, result.Loan.Status)
	assert.Equal(t, "500.00", result.Loan.InterestAmount.StringFixed(2))
	assert.Equal(t, "10500.00", result.Loan.TotalRepayment.StringFixed(2))
	assert.True(t, result.Loan.RemainingAmount.IsZero())
	require.NotNil(t, result.Loan.ReturnDate)
	assert.Equal(t, date("2024-05-01"), *result.Loan.ReturnDate)
	assert.Equal(t, "operator", result.Payment.CreatedBy)

	_, err = env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("1"), PaymentDate: date("2024-05-02")})
	assert.ErrorIs(t, err, ErrInvalidState)

	history, err := env.loans.PaymentHistory(ctx, loan.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLoanService_AddPayment_PartialThenDiscount(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	first, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("3000"), PaymentDate: date("2024-05-01")})
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, first.Loan.Status)
	assert.Equal(t, "7500.00", first.Loan.RemainingAmount.StringFixed(2))
	assert.True(t, first.Loan.InterestAmount.IsZero())

	second, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{
		Amount:      dec("7000"),
		Discount:    dec("500"),
		PaymentDate: date("2024-05-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusClosed, second.Loan.Status)
	assert.Equal(t, "10000.00", second.Loan.PaidAmount.StringFixed(2))
	assert.Equal(t, "500.00", second.Loan.DiscountAmount.StringFixed(2))
	assert.True(t, second.Loan.RemainingAmount.IsZero())
}

func TestLoanService_AddPayment_Validation(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("0")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("0.001")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("10"), Discount: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.loans.AddPayment(ctx, uuid.New(), PaymentInput{Amount: dec("10")})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, env.store.payments)
}

func TestLoanService_AddPayment_RollsBackOnSaveFailure(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")
	env.store.failLoanSave = loan.ID

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("100"), PaymentDate: date("2024-05-01")})
	require.Error(t, err)

	assert.Empty(t, env.store.payments)
	stored, err := env.repos.Loan.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
}

func TestLoanService_AddPayment_Concurrent(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("100"), PaymentDate: date("2024-05-01")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := env.repos.Loan.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", stored.PaidAmount.StringFixed(2))
	assert.Equal(t, "9500.00", stored.RemainingAmount.StringFixed(2))
	assert.Len(t, env.store.payments, 10)
}

func TestLoanService_Close_WithFinalPayment(t *testing.T) {
	env := newTestEnv("2024-07-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	closed, err := env.loans.Close(ctx, loan.ID, CloseLoanInput{
		ReturnDate:   date("2024-06-15"),
		FinalPayment: decPtr("11000"),
		Discount:     decPtr("500"),
	})
	require.NoError(t, err)

	// 75 days bill as 3 months at 5%
	assert.Equal(t, models.LoanStatusClosed, closed.Status)
	assert.Equal(t, "1500.00", closed.InterestAmount.StringFixed(2))
	assert.Equal(t, "11500.00", closed.TotalRepayment.StringFixed(2))
	assert.Equal(t, "11000.00", closed.PaidAmount.StringFixed(2))
	assert.Equal(t, "500.00", closed.DiscountAmount.StringFixed(2))
	assert.True(t, closed.RemainingAmount.IsZero())

	history, err := env.loans.PaymentHistory(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Notes)
	assert.Equal(t, finalPaymentNote, *history[0].Notes)

	_, err = env.loans.Close(ctx, loan.ID, CloseLoanInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoanService_Close_RejectsFinalPaymentRoundingToZero(t *testing.T) {
	env := newTestEnv("2024-07-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.Close(ctx, loan.ID, CloseLoanInput{ReturnDate: date("2024-06-15"), FinalPayment: decPtr("0.001")})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, env.store.payments)
	stored, err := env.repos.Loan.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, stored.Status)
}

func TestLoanService_Create_RejectsAmountRoundingToZero(t *testing.T) {
	env := newTestEnv("2024-06-01")

	_, err := env.loans.Create(context.Background(), CreateLoanInput{
		MemberID: env.member.ID,
		Amount:   dec("0.004"),
		LoanDate: date("2024-04-01"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.store.loans)
}

func TestLoanService_Update(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("3000"), PaymentDate: date("2024-05-01")})
	require.NoError(t, err)

	updated, err := env.loans.Update(ctx, loan.ID, UpdateLoanInput{Amount: dec("12000"), LoanDate: date("2024-04-01")})
	require.NoError(t, err)
	assert.Equal(t, "9000.00", updated.RemainingAmount.StringFixed(2))

	_, err = env.loans.Update(ctx, loan.ID, UpdateLoanInput{Amount: dec("0.004"), LoanDate: date("2024-04-01")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoanService_CarryForward(t *testing.T) {
	env := newTestEnv("2025-03-31")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("2000"), PaymentDate: date("2024-05-01")})
	require.NoError(t, err)

	result, err := env.loans.CarryForward(ctx, loan.ID, "2025-26", date("2025-03-31"))
	require.NoError(t, err)
	require.NotNil(t, result.Next)

	// 364 days bill as 13 months at 5%
	prev := result.Previous
	assert.Equal(t, models.LoanStatusCarriedForward, prev.Status)
	assert.Equal(t, "6500.00", prev.InterestAmount.StringFixed(2))
	assert.Equal(t, "16500.00", prev.TotalRepayment.StringFixed(2))
	assert.True(t, prev.RemainingAmount.IsZero())

	next := result.Next
	owed := prev.LoanAmount.Add(prev.InterestAmount).Sub(prev.PaidAmount)
	assert.True(t, owed.Equal(next.LoanAmount), "carried %s, owed %s", next.LoanAmount, owed)
	assert.Equal(t, "14500.00", next.LoanAmount.StringFixed(2))
	assert.Equal(t, next.LoanAmount, next.RemainingAmount)
	assert.Equal(t, models.LoanStatusActive, next.Status)
	assert.Equal(t, "2025-26", next.FinancialYear)
	assert.Equal(t, date("2025-04-01"), next.LoanDate)
	require.NotNil(t, next.CarriedForwardFromID)
	assert.Equal(t, prev.ID, *next.CarriedForwardFromID)
	assert.Contains(t, *next.Notes, prev.ID.String())

	_, err = env.loans.CarryForward(ctx, loan.ID, "2025-26", date("2025-03-31"))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLoanService_Settle(t *testing.T) {
	env := newTestEnv("2025-03-31")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("3000"), PaymentDate: date("2024-05-01")})
	require.NoError(t, err)

	settled, err := env.loans.Settle(ctx, loan.ID, date("2025-03-31"))
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusSettled, settled.Status)
	assert.Equal(t, "16500.00", settled.TotalRepayment.StringFixed(2))
	assert.Equal(t, "13500.00", settled.RemainingAmount.StringFixed(2))
	assert.Len(t, env.store.payments, 1)
}

func TestLoanService_PaymentHistory(t *testing.T) {
	env := newTestEnv("2024-07-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	for _, day := range []string{"2024-05-01", "2024-06-01"} {
		_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("100"), PaymentDate: date(day)})
		require.NoError(t, err)
	}

	history, err := env.loans.PaymentHistory(ctx, loan.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, date("2024-06-01"), history[0].PaymentDate)
	assert.Equal(t, date("2024-05-01"), history[1].PaymentDate)

	_, err = env.loans.PaymentHistory(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_FindByID_Projection(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	loan := env.seedLoan("10000", "2024-04-01")

	_, err := env.loans.AddPayment(ctx, loan.ID, PaymentInput{Amount: dec("1000"), PaymentDate: date("2024-05-01")})
	require.NoError(t, err)

	resp, err := env.loans.FindByID(ctx, loan.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentRemaining)
	// 61 days as of today bill as 3 months
	assert.Equal(t, "1500.00", resp.CurrentInterest.StringFixed(2))
	assert.Equal(t, "10500.00", resp.CurrentRemaining.StringFixed(2))
}
