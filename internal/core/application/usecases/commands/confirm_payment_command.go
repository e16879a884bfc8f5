package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrConfirmPaymentCommandIsNotConstructed = errors.New(
	"ConfirmPaymentCommand must be created via NewConfirmPaymentCommand constructor",
)

// ConfirmPaymentCommand records the payment gateway's confirmation for an
// order. expectedVersion 0 skips the version check.
type ConfirmPaymentCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	expectedVersion int64

	guard guard.ConstructorGuard
}

func NewConfirmPaymentCommand(orderID kernel.UUID, expectedVersion int64) (ConfirmPaymentCommand, error) {
	var versionErr error
	if expectedVersion < 0 {
		versionErr = errs.NewVersionIsInvalidError("expected version", fmt.Errorf("%d is negative", expectedVersion))
	}
	if err := errors.Join(orderID.Validate(), versionErr); err != nil {
		return ConfirmPaymentCommand{}, err
	}
	return ConfirmPaymentCommand{
		orderID:         orderID,
		expectedVersion: expectedVersion,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c ConfirmPaymentCommand) Validate() error {
	return c.guard.Validate(ErrConfirmPaymentCommandIsNotConstructed)
}

func (c ConfirmPaymentCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ConfirmPaymentCommand) ExpectedVersion() int64 {
	return c.expectedVersion
}
