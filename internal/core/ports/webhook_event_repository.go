package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/webhook"
)

// WebhookEventRepository stores inbound courier callbacks for
// deduplication and reconciliation.
type WebhookEventRepository interface {
	// InsertIfAbsent stores the event unless its dedupe key already exists.
	// It is a single atomic statement; inserted is false for a duplicate.
	InsertIfAbsent(ctx context.Context, event webhook.Event) (inserted bool, err error)

	// UpdateOutcome writes AppliedAt, Outcome and ReconcileAttempts.
	UpdateOutcome(ctx context.Context, event webhook.Event) error

	// Get loads an event by dedupe key.
	Get(ctx context.Context, dedupeKey string) (webhook.Event, error)

	// ListDeferred returns deferred events with fewer than maxAttempts
	// reconciliation attempts, oldest first.
	ListDeferred(ctx context.Context, maxAttempts, limit int) ([]webhook.Event, error)

	// CountDeferred counts events still waiting for reconciliation.
	CountDeferred(ctx context.Context) (int64, error)

	// PurgeReceivedBefore deletes events received before cutoff and reports
	// how many were removed.
	PurgeReceivedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
