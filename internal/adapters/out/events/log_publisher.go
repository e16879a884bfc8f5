package events

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/ports"
)

// LogPublisher stands in when no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ ports.OrderEventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "order_events")}
}

func (p *LogPublisher) PublishStatusChanged(ctx context.Context, event ports.OrderStatusChanged) error {
	p.logger.DebugContext(ctx, "order status changed",
		"order_id", event.OrderID,
		"from", event.From,
		"to", event.To,
		"event", event.Event,
		"version", event.Version,
	)
	return nil
}
