// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"fulfillment/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler asks only for the repositories it touches.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	CouponRepoFactory interface {
		CouponRepository() ports.CouponRepository
	}

	BranchRepoFactory interface {
		BranchRepository() ports.BranchRepository
	}

	WebhookEventRepoFactory interface {
		WebhookEventRepository() ports.WebhookEventRepository
	}

	// OrderUoW manages transactions for order-only operations such as
	// admin-driven transitions.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CouponUoW manages transactions for coupon redemption.
	CouponUoW interface {
		TxManager
		CouponRepoFactory
	}

	CouponUoWFactory interface {
		Create() CouponUoW
	}

	// WebhookUoW spans the dedupe row and the order it transitions, so both
	// commit or neither does.
	WebhookUoW interface {
		TxManager
		OrderRepoFactory
		WebhookEventRepoFactory
	}

	WebhookUoWFactory interface {
		Create() WebhookUoW
	}

	// UoW manages transactions across orders, coupons and branches.
	// Used for order creation, branch assignment, payment confirmation and
	// dispatch.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   branchRepo := uow.BranchRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		CouponRepoFactory
		BranchRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
