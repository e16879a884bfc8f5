package ports

import (
	"context"
	"time"
)

// OrderStatusChanged is published after a transition commits.
type OrderStatusChanged struct {
	AuditID    string
	OrderID    string
	From       string
	To         string
	Event      string
	Actor      string
	Version    int64
	TrackingID string
	OccurredAt time.Time
}

// OrderEventPublisher delivers order notifications to downstream consumers.
// It runs after commit; failures never undo the transition.
type OrderEventPublisher interface {
	PublishStatusChanged(ctx context.Context, event OrderStatusChanged) error
}
