package commands

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrPurgeWebhookEventsCommandIsNotConstructed = errors.New(
	"PurgeWebhookEventsCommand must be created via NewPurgeWebhookEventsCommand constructor",
)

// PurgeWebhookEventsCommand drops webhook events received longer ago than
// retention. Retention must exceed the replay tolerance, otherwise a purged
// event could be replayed while its timestamp is still fresh.
type PurgeWebhookEventsCommand struct { //nolint:recvcheck //using for validation
	retention time.Duration

	guard guard.ConstructorGuard
}

func NewPurgeWebhookEventsCommand(retention, replayTolerance time.Duration) (PurgeWebhookEventsCommand, error) {
	if retention <= replayTolerance {
		return PurgeWebhookEventsCommand{}, errs.NewValueIsInvalidErrorWithCause(
			"retention", fmt.Errorf("%s does not exceed replay tolerance %s", retention, replayTolerance))
	}
	return PurgeWebhookEventsCommand{retention: retention, guard: guard.NewConstructorGuard()}, nil
}

func (c PurgeWebhookEventsCommand) Validate() error {
	return c.guard.Validate(ErrPurgeWebhookEventsCommandIsNotConstructed)
}

func (c PurgeWebhookEventsCommand) Retention() time.Duration {
	return c.retention
}
