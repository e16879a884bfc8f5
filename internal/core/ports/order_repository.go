// Package ports defines the contracts between the application core and its
// adapters: repositories, the unit of work, and outbound integrations.
package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the aggregate only if the stored version still equals
	// expectedVersion. A lost race returns *errs.ConcurrencyConflictError and
	// writes nothing.
	Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error

	// Get retrieves an order by id. A missing order is *errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// AppendAudit stores one audit record. Records are never updated.
	AppendAudit(ctx context.Context, record order.AuditRecord) error

	// ListAudit returns an order's audit trail, oldest first.
	ListAudit(ctx context.Context, id kernel.UUID) ([]order.AuditRecord, error)
}
