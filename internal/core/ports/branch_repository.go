package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/kernel"
)

// BranchRepository reads and maintains operating branches.
type BranchRepository interface {
	// Get retrieves a branch by id, active or not.
	Get(ctx context.Context, id kernel.UUID) (*branch.Branch, error)

	// ListActive returns active branches in priority order.
	ListActive(ctx context.Context) ([]*branch.Branch, error)

	// Upsert inserts a branch or replaces the row with the same code.
	Upsert(ctx context.Context, b *branch.Branch) error
}
