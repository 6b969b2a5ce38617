package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberService_Create(t *testing.T) {
	env := newTestEnv("2024-06-01")
	svc := NewMemberService(env.repos.Member)
	ctx := context.Background()

	member, err := svc.Create(ctx, CreateMemberInput{
		FirstName:   "  Sita ",
		LastName:    "Devi",
		JoiningDate: date("2023-08-10"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, member.ID)
	assert.Equal(t, "Sita", member.FirstName)
	assert.True(t, member.IsActive)

	found, err := svc.FindByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Devi", found.LastName)

	_, total, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestMemberService_CreateValidation(t *testing.T) {
	svc := NewMemberService(newTestEnv("2024-06-01").repos.Member)

	tests := []struct {
		name  string
		input CreateMemberInput
	}{
		{"blank first name", CreateMemberInput{FirstName: " ", LastName: "Devi", JoiningDate: date("2023-08-10")}},
		{"missing last name", CreateMemberInput{FirstName: "Sita", JoiningDate: date("2023-08-10")}},
		{"missing joining date", CreateMemberInput{FirstName: "Sita", LastName: "Devi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestMemberService_FindByIDNotFound(t *testing.T) {
	svc := NewMemberService(newTestEnv("2024-06-01").repos.Member)

	_, err := svc.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
