package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	DefaultMaxReconcileAttempts = 3
	DefaultReconcileBatchSize   = 100
)

var ErrReconcileWebhookEventsCommandIsNotConstructed = errors.New(
	"ReconcileWebhookEventsCommand must be created via NewReconcileWebhookEventsCommand constructor",
)

// ReconcileWebhookEventsCommand retries deferred webhook events that have
// been retried fewer than maxAttempts times, at most batchSize per run.
type ReconcileWebhookEventsCommand struct { //nolint:recvcheck //using for validation
	maxAttempts int
	batchSize   int

	guard guard.ConstructorGuard
}

func NewReconcileWebhookEventsCommand(maxAttempts, batchSize int) (ReconcileWebhookEventsCommand, error) {
	if maxAttempts <= 0 {
		return ReconcileWebhookEventsCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"max attempts", fmt.Errorf("%d is not greater than 0", maxAttempts))
	}
	if batchSize <= 0 {
		return ReconcileWebhookEventsCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"batch size", fmt.Errorf("%d is not greater than 0", batchSize))
	}

	return ReconcileWebhookEventsCommand{
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c ReconcileWebhookEventsCommand) Validate() error {
	return c.guard.Validate(ErrReconcileWebhookEventsCommandIsNotConstructed)
}

func (c ReconcileWebhookEventsCommand) MaxAttempts() int {
	return c.maxAttempts
}

func (c ReconcileWebhookEventsCommand) BatchSize() int {
	return c.batchSize
}
