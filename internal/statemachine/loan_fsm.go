package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/gramin-ledger/internal/models"
)

// Loan events
const (
	LoanEventClose        = "close"
	LoanEventSettle       = "settle"
	LoanEventCarryForward = "carry_forward"
)

// LoanFSM wraps a loan with its state machine
type LoanFSM struct {
	loan *models.Loan
	fsm  *fsm.FSM
}

// NewLoanFSM creates a new loan state machine
func NewLoanFSM(loan *models.Loan) *LoanFSM {
	lfsm := &LoanFSM{
		loan: loan,
	}

	lfsm.fsm = fsm.NewFSM(
		loan.Status,
		fsm.Events{
			// active → closed (fully repaid or closed by operator)
			{Name: LoanEventClose, Src: []string{models.LoanStatusActive}, Dst: models.LoanStatusClosed},

			// active → settled (yearly sweep, settle mode or nothing left owing)
			{Name: LoanEventSettle, Src: []string{models.LoanStatusActive}, Dst: models.LoanStatusSettled},

			// active → carried forward (yearly sweep, balance moves to a new loan)
			{Name: LoanEventCarryForward, Src: []string{models.LoanStatusActive}, Dst: models.LoanStatusCarriedForward},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// Close transitions the loan to CLOSED
func (l *LoanFSM) Close(ctx context.Context) error {
	return l.fire(ctx, LoanEventClose)
}

// Settle transitions the loan to SETTLED
func (l *LoanFSM) Settle(ctx context.Context) error {
	return l.fire(ctx, LoanEventSettle)
}

// CarryForward transitions the loan to CARRIED_FORWARD
func (l *LoanFSM) CarryForward(ctx context.Context) error {
	return l.fire(ctx, LoanEventCarryForward)
}

func (l *LoanFSM) fire(ctx context.Context, event string) error {
	if !l.loan.MayClose() {
		return fmt.Errorf("%w: loan is %s", ErrInvalidTransition, l.loan.Status)
	}

	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s loan: %v", ErrInvalidTransition, event, err)
	}

	l.loan.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LoanFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LoanFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
