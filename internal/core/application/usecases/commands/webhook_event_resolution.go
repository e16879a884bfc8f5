package commands

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// resolveWebhookEvent maps the event's external status and applies it to
// the order, marking ev with the outcome. Version conflicts reload and retry
// up to tries times in total before the event is deferred. Only storage
// failures are returned as errors.
func resolveWebhookEvent(
	ctx context.Context,
	repo ports.OrderRepository,
	ev *webhook.Event,
	tries int,
	clock Clock,
) (transitionOutcome, error) {
	orderEvent, ok := webhook.MapStatus(ev.ExternalStatus)
	if !ok {
		ev.MarkOutcome(webhook.OutcomeUnknownStatus)
		return transitionOutcome{}, nil
	}
	data := order.EventData{CourierStatus: strings.ToUpper(strings.TrimSpace(ev.ExternalStatus))}

	for attempt := 1; ; attempt++ {
		outcome, err := transitionByID(ctx, repo, ev.OrderID, 0, orderEvent, data, order.ActorWebhook, clock)
		switch {
		case err == nil && outcome.Audit == nil:
			ev.MarkOutcome(webhook.OutcomeIgnored)
			return outcome, nil
		case err == nil:
			ev.MarkApplied(clock.now())
			return outcome, nil
		case errors.Is(err, errs.ErrObjectNotFound):
			ev.MarkOutcome(webhook.OutcomeOrderNotFound)
			return transitionOutcome{}, nil
		case errors.Is(err, order.ErrInvalidTransition):
			ev.MarkOutcome(webhook.OutcomeInvalidTransition)
			return transitionOutcome{}, nil
		case isConcurrencyConflict(err) && attempt < tries:
			continue
		case isConcurrencyConflict(err):
			ev.MarkOutcome(webhook.OutcomeDeferred)
			return transitionOutcome{}, nil
		default:
			return transitionOutcome{}, err
		}
	}
}
