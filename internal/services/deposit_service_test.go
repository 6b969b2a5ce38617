package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sjperalta/gramin-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositService_Create(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()

	deposit, err := env.deposits.Create(ctx, CreateDepositInput{
		MemberID:    env.member.ID,
		Amount:      dec("1000"),
		DepositDate: date("2024-04-01"),
		Actor:       "treasurer",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DepositStatusActive, deposit.Status)
	assert.Equal(t, "2024-25", deposit.FinancialYear)
	assert.Equal(t, "2.50", deposit.InterestRate.StringFixed(2))
	assert.True(t, deposit.InterestEarned.IsZero())
	assert.True(t, deposit.TotalAmount.IsZero())
	assert.Nil(t, deposit.ReturnDate)
	assert.Equal(t, []string{models.AuditActionCreate}, env.store.auditActions(deposit.ID))
}

func TestDepositService_Create_Validation(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateDepositInput
		want  error
	}{
		{
			name:  "zero amount",
			input: CreateDepositInput{MemberID: env.member.ID, Amount: dec("0"), DepositDate: date("2024-04-01")},
			want:  ErrValidation,
		},
		{
			name:  "amount rounds to zero",
			input: CreateDepositInput{MemberID: env.member.ID, Amount: dec("0.004"), DepositDate: date("2024-04-01")},
			want:  ErrValidation,
		},
		{
			name:  "missing date",
			input: CreateDepositInput{MemberID: env.member.ID, Amount: dec("100")},
			want:  ErrValidation,
		},
		{
			name:  "negative rate",
			input: CreateDepositInput{MemberID: env.member.ID, Amount: dec("100"), DepositDate: date("2024-04-01"), InterestRate: decPtr("-1")},
			want:  ErrValidation,
		},
		{
			name:  "unknown member",
			input: CreateDepositInput{MemberID: uuid.New(), Amount: dec("100"), DepositDate: date("2024-04-01")},
			want:  ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.deposits.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, env.store.deposits)
}

func TestDepositService_Close(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	deposit := env.seedDeposit("1000", "2024-04-01")

	closed, err := env.deposits.Close(ctx, deposit.ID, date("2024-05-15"), "treasurer")
	require.NoError(t, err)

	assert.Equal(t, models.DepositStatusReturned, closed.Status)
	assert.Equal(t, "50.00", closed.InterestEarned.StringFixed(2))
	assert.Equal(t, "1050.00", closed.TotalAmount.StringFixed(2))
	require.NotNil(t, closed.ReturnDate)
	assert.Equal(t, date("2024-05-15"), *closed.ReturnDate)

	_, err = env.deposits.Close(ctx, deposit.ID, date("2024-05-20"), "treasurer")
	assert.ErrorIs(t, err, ErrInvalidState)

	stored, err := env.repos.Deposit.FindByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, "1050.00", stored.TotalAmount.StringFixed(2))
	assert.Equal(t, []string{models.AuditActionCreate, models.AuditActionReturn}, env.store.auditActions(deposit.ID))
}

func TestDepositService_Close_DefaultsToToday(t *testing.T) {
	env := newTestEnv("2024-06-01")
	deposit := env.seedDeposit("1000", "2024-04-01")

	closed, err := env.deposits.Close(context.Background(), deposit.ID, zeroTime, "")
	require.NoError(t, err)

	// 61 days bill as 3 months
	assert.Equal(t, "75.00", closed.InterestEarned.StringFixed(2))
	assert.Equal(t, date("2024-06-01"), *closed.ReturnDate)
}

func TestDepositService_Close_SameDay(t *testing.T) {
	env := newTestEnv("2024-06-01")
	deposit := env.seedDeposit("1000", "2024-04-01")

	closed, err := env.deposits.Close(context.Background(), deposit.ID, date("2024-04-01"), "")
	require.NoError(t, err)
	assert.True(t, closed.InterestEarned.IsZero())
	assert.Equal(t, "1000.00", closed.TotalAmount.StringFixed(2))
}

func TestDepositService_Close_NotFound(t *testing.T) {
	env := newTestEnv("2024-06-01")
	_, err := env.deposits.Close(context.Background(), uuid.New(), date("2024-05-15"), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDepositService_Update(t *testing.T) {
	env := newTestEnv("2024-06-01")
	ctx := context.Background()
	deposit := env.seedDeposit("1000", "2024-04-01")

	updated, err := env.deposits.Update(ctx, deposit.ID, UpdateDepositInput{
		Amount:      dec("1500"),
		DepositDate: date("2024-03-20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1500.00", updated.Amount.StringFixed(2))
	assert.Equal(t, "2023-24", updated.FinancialYear)
	assert.True(t, updated.InterestEarned.IsZero())

	_, err = env.deposits.Update(ctx, deposit.ID, UpdateDepositInput{Amount: dec("0.004"), DepositDate: date("2024-04-01")})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := env.repos.Deposit.FindByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", stored.Amount.StringFixed(2))

	_, err = env.deposits.Close(ctx, deposit.ID, date("2024-05-15"), "")
	require.NoError(t, err)

	_, err = env.deposits.Update(ctx, deposit.ID, UpdateDepositInput{Amount: dec("10"), DepositDate: date("2024-04-01")})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDepositService_FindByID_Projection(t *testing.T) {
	env := newTestEnv("2024-06-01")
	deposit := env.seedDeposit("1000", "2024-04-01")

	resp, err := env.deposits.FindByID(context.Background(), deposit.ID)
	require.NoError(t, err)

	require.NotNil(t, resp.CurrentInterest)
	assert.Equal(t, "75.00", resp.CurrentInterest.StringFixed(2))
	assert.Equal(t, "1075.00", resp.CurrentTotal.StringFixed(2))
	assert.Equal(t, 61, resp.DurationDays)
	assert.Equal(t, 3, resp.DurationMonths)
	assert.Equal(t, "Ramesh Kumar", resp.MemberName)
	// persisted fields are untouched by the projection
	assert.True(t, resp.InterestEarned.IsZero())
}
