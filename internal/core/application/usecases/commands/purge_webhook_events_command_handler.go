package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/pkg/metrics"
)

type PurgeWebhookEventsCommandHandler struct {
	uowFactory WebhookUoWFactory
	metrics    *metrics.Metrics
	clock      Clock
	logger     *slog.Logger
}

func NewPurgeWebhookEventsCommandHandler(
	uowFactory WebhookUoWFactory,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) PurgeWebhookEventsCommandHandler {
	return PurgeWebhookEventsCommandHandler{
		uowFactory: uowFactory,
		metrics:    m,
		clock:      clock,
		logger:     loggerOrDefault(logger, "webhook-retention"),
	}
}

// Handle returns the number of purged events.
func (h PurgeWebhookEventsCommandHandler) Handle(ctx context.Context, cmd PurgeWebhookEventsCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	cutoff := h.clock.now().Add(-cmd.Retention())
	purged, err := uow.WebhookEventRepository().PurgeReceivedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	h.metrics.WebhookEventsPurged(purged)
	if purged > 0 {
		h.logger.InfoContext(ctx, "purged webhook events", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}
