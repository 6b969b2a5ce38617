package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/gramin-ledger/internal/models"
)

// Deposit events
const (
	DepositEventReturn = "return"
	DepositEventSettle = "settle"
)

// DepositFSM wraps a deposit with its state machine
type DepositFSM struct {
	deposit *models.Deposit
	fsm     *fsm.FSM
}

// NewDepositFSM creates a new deposit state machine
func NewDepositFSM(deposit *models.Deposit) *DepositFSM {
	dfsm := &DepositFSM{
		deposit: deposit,
	}

	dfsm.fsm = fsm.NewFSM(
		deposit.Status,
		fsm.Events{
			// active → returned (operator closes the deposit)
			{Name: DepositEventReturn, Src: []string{models.DepositStatusActive}, Dst: models.DepositStatusReturned},

			// active → settled (yearly sweep)
			{Name: DepositEventSettle, Src: []string{models.DepositStatusActive}, Dst: models.DepositStatusSettled},
		},
		fsm.Callbacks{},
	)

	return dfsm
}

// Return transitions the deposit to RETURNED
func (d *DepositFSM) Return(ctx context.Context) error {
	return d.fire(ctx, DepositEventReturn)
}

// Settle transitions the deposit to SETTLED
func (d *DepositFSM) Settle(ctx context.Context) error {
	return d.fire(ctx, DepositEventSettle)
}

func (d *DepositFSM) fire(ctx context.Context, event string) error {
	if !d.deposit.MayClose() {
		return fmt.Errorf("%w: deposit is %s", ErrInvalidTransition, d.deposit.Status)
	}

	if err := d.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("%w: %s deposit: %v", ErrInvalidTransition, event, err)
	}

	d.deposit.Status = d.fsm.Current()
	return nil
}

// Current returns the current state
func (d *DepositFSM) Current() string {
	return d.fsm.Current()
}

// Can checks if a transition is possible
func (d *DepositFSM) Can(event string) bool {
	return d.fsm.Can(event)
}
