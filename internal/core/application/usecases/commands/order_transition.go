package commands

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// transitionOutcome is the result of running one event against an order
// inside a transaction.
type transitionOutcome struct {
	Order *order.Order
	// Audit is nil for an idempotent terminal re-delivery.
	Audit *order.AuditRecord
}

// applyTransition runs event against an already loaded order and persists
// the effect: a version compare-and-swap on the order row and one audit
// record. Nothing is written for a no-op.
func applyTransition(
	ctx context.Context,
	repo ports.OrderRepository,
	o *order.Order,
	event order.Event,
	data order.EventData,
	actor order.Actor,
	clock Clock,
) (transitionOutcome, error) {
	basedOn := o.Version()

	record, applied, err := o.Apply(event, data, actor, clock.now())
	if err != nil {
		return transitionOutcome{}, err
	}
	if !applied {
		return transitionOutcome{Order: o}, nil
	}

	if err = repo.Update(ctx, o, basedOn); err != nil {
		return transitionOutcome{}, err
	}
	if err = repo.AppendAudit(ctx, record); err != nil {
		return transitionOutcome{}, err
	}
	return transitionOutcome{Order: o, Audit: &record}, nil
}

// transitionByID loads the order and, when expectedVersion is positive,
// insists it still matches before applying event.
func transitionByID(
	ctx context.Context,
	repo ports.OrderRepository,
	id kernel.UUID,
	expectedVersion int64,
	event order.Event,
	data order.EventData,
	actor order.Actor,
	clock Clock,
) (transitionOutcome, error) {
	o, err := repo.Get(ctx, id)
	if err != nil {
		return transitionOutcome{}, err
	}
	if expectedVersion > 0 && o.Version() != expectedVersion {
		return transitionOutcome{}, errs.NewConcurrencyConflictError("order", id.String(), expectedVersion, o.Version())
	}
	return applyTransition(ctx, repo, o, event, data, actor, clock)
}

// statusNotifier publishes committed transitions. Publication is best
// effort: the transition is already durable.
type statusNotifier struct {
	publisher ports.OrderEventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func (n statusNotifier) committed(ctx context.Context, outcome transitionOutcome) {
	if outcome.Audit == nil {
		return
	}
	rec := outcome.Audit
	n.metrics.TransitionApplied(rec.Event.String(), string(rec.Actor))

	if n.publisher == nil {
		return
	}
	event := ports.OrderStatusChanged{
		AuditID:    rec.ID,
		OrderID:    rec.OrderID.String(),
		From:       rec.From.String(),
		To:         rec.To.String(),
		Event:      rec.Event.String(),
		Actor:      string(rec.Actor),
		Version:    rec.Version,
		OccurredAt: rec.OccurredAt,
	}
	if tracking := outcome.Order.TrackingID(); tracking != nil {
		event.TrackingID = *tracking
	}
	if err := n.publisher.PublishStatusChanged(ctx, event); err != nil && n.logger != nil {
		n.logger.WarnContext(ctx, "failed to publish order status change",
			"order_id", event.OrderID, "version", event.Version, "error", err)
	}
}

func isConcurrencyConflict(err error) bool {
	return errors.Is(err, errs.ErrConcurrencyConflict)
}

func loggerOrDefault(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", component)
}
