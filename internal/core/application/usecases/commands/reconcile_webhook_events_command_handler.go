package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/metrics"
)

// ReconcileResult summarises one reconciliation run.
type ReconcileResult struct {
	Examined      int
	Applied       int
	StillDeferred int
	Failed        int
}

// ReconcileWebhookEventsCommandHandler gives deferred webhook events another
// chance. Each event gets a single transition try per run, in its own
// transaction; once its attempts reach the limit it stays deferred for a
// human to look at.
type ReconcileWebhookEventsCommandHandler struct {
	uowFactory WebhookUoWFactory
	notifier   statusNotifier
	metrics    *metrics.Metrics
	clock      Clock
	logger     *slog.Logger
}

func NewReconcileWebhookEventsCommandHandler(
	uowFactory WebhookUoWFactory,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) ReconcileWebhookEventsCommandHandler {
	logger = loggerOrDefault(logger, "webhook-reconciler")
	return ReconcileWebhookEventsCommandHandler{
		uowFactory: uowFactory,
		notifier:   statusNotifier{publisher: publisher, metrics: m, logger: logger},
		metrics:    m,
		clock:      clock,
		logger:     logger,
	}
}

// Handle fails only when the deferred events cannot be listed. Per-event
// storage failures are logged and counted in Failed.
func (h ReconcileWebhookEventsCommandHandler) Handle(
	ctx context.Context,
	cmd ReconcileWebhookEventsCommand,
) (ReconcileResult, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	deferred, err := h.listDeferred(ctx, cmd)
	if err != nil {
		return ReconcileResult{}, err
	}

	var result ReconcileResult
	for _, ev := range deferred {
		if ctx.Err() != nil {
			break
		}
		result.Examined++

		outcome, err := h.reconcile(ctx, ev)
		if err != nil {
			result.Failed++
			h.metrics.WebhookReconciled("error")
			h.logger.ErrorContext(ctx, "failed to reconcile webhook event",
				"dedupe_key", ev.DedupeKey, "error", err)
			continue
		}

		h.metrics.WebhookReconciled(string(outcome))
		switch outcome {
		case webhook.OutcomeApplied:
			result.Applied++
		case webhook.OutcomeDeferred:
			result.StillDeferred++
		default:
		}
	}

	if result.Examined > 0 {
		h.logger.InfoContext(ctx, "webhook reconciliation finished",
			"examined", result.Examined, "applied", result.Applied,
			"still_deferred", result.StillDeferred, "failed", result.Failed)
	}
	return result, nil
}

func (h ReconcileWebhookEventsCommandHandler) listDeferred(
	ctx context.Context,
	cmd ReconcileWebhookEventsCommand,
) ([]webhook.Event, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.WebhookEventRepository().ListDeferred(ctx, cmd.MaxAttempts(), cmd.BatchSize())
}

func (h ReconcileWebhookEventsCommandHandler) reconcile(ctx context.Context, ev webhook.Event) (webhook.Outcome, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ev.ReconcileAttempts++
	outcome, err := resolveWebhookEvent(ctx, uow.OrderRepository(), &ev, 1, h.clock)
	if err != nil {
		return "", err
	}
	if err = uow.WebhookEventRepository().UpdateOutcome(ctx, ev); err != nil {
		return "", err
	}

	if err = uow.Commit(ctx); err != nil {
		return "", err
	}

	h.notifier.committed(ctx, outcome)
	return ev.Outcome, nil
}
