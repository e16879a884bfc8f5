package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrAssignBranchCommandIsNotConstructed = errors.New(
	"AssignBranchCommand must be created via NewAssignBranchCommand constructor",
)

// AssignBranchCommand re-runs branch resolution for one order, typically
// after an operator fixed branch coverage for a BranchPending order.
type AssignBranchCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAssignBranchCommand(orderID kernel.UUID) (AssignBranchCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignBranchCommand{}, err
	}
	return AssignBranchCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignBranchCommand) Validate() error {
	return c.guard.Validate(ErrAssignBranchCommandIsNotConstructed)
}

func (c AssignBranchCommand) OrderID() kernel.UUID {
	return c.orderID
}
