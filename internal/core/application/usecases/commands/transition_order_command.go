package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand asks the state machine to apply one event.
//
// An expectedVersion of 0 means "whatever is stored now": the write is still
// a compare-and-swap against the version that was loaded, so a concurrent
// change surfaces as a conflict either way.
//
// Example:
//
//	cmd, err := NewTransitionOrderCommand(orderID, order.AdminCancelled, 4, order.ActorAdmin, order.EventData{})
//	if err != nil {
//	    return err
//	}
//	updated, err := handler.Handle(ctx, cmd)
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	event           order.Event
	expectedVersion int64
	actor           order.Actor
	data            order.EventData

	guard guard.ConstructorGuard
}

func NewTransitionOrderCommand(
	orderID kernel.UUID,
	event order.Event,
	expectedVersion int64,
	actor order.Actor,
	data order.EventData,
) (TransitionOrderCommand, error) {
	cmd := TransitionOrderCommand{
		event:           event,
		expectedVersion: expectedVersion,
		actor:           actor,
		data:            data,
		guard:           guard.NewConstructorGuard(),
	}

	var eventErr, versionErr, actorErr error
	if event.String() == "Unknown" {
		eventErr = errs.NewValueIsInvalidErrorWithCause("event", fmt.Errorf("%d is not a known event", event))
	}
	if expectedVersion < 0 {
		versionErr = errs.NewVersionIsInvalidError("expected version", fmt.Errorf("%d is negative", expectedVersion))
	}
	if actor == "" {
		actorErr = errs.NewValueIsRequiredError("actor")
	}

	if err := errors.Join(cmd.setOrderID(orderID), eventErr, versionErr, actorErr); err != nil {
		return TransitionOrderCommand{}, err
	}
	return cmd, nil
}

func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c TransitionOrderCommand) Event() order.Event {
	return c.event
}

func (c TransitionOrderCommand) ExpectedVersion() int64 {
	return c.expectedVersion
}

func (c TransitionOrderCommand) Actor() order.Actor {
	return c.actor
}

func (c TransitionOrderCommand) Data() order.EventData {
	return c.data
}

func (c *TransitionOrderCommand) setOrderID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.orderID = id
	return nil
}
