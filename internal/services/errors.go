package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sjperalta/gramin-ledger/internal/statemachine"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
	"gorm.io/gorm"
)

// Common service errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("record not found")
	ErrInvalidState = errors.New("invalid state")
	ErrComputation  = errors.New("interest computation failed")
)

// validationError wraps ErrValidation with a reason
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error to ErrNotFound and passes anything else through.
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, entity)
	}
	return err
}

// invalidState maps FSM rejections to ErrInvalidState.
func invalidState(err error) error {
	if errors.Is(err, statemachine.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}

// computationError logs and reports a calculator failure. It means validation upstream let
// inconsistent values through, so it always aborts the operation.
func computationError(ctx context.Context, operation string, err error) error {
	logger.Log.ErrorContext(ctx, "Interest computation failed", "operation", operation, "error", err)
	sentry.CaptureException(fmt.Errorf("%s: %w", operation, err))
	return fmt.Errorf("%w: %s: %v", ErrComputation, operation, err)
}
