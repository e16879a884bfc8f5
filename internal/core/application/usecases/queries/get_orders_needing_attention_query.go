package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetOrdersNeedingAttentionQueryIsNotConstructed = errors.New(
		"GetOrdersNeedingAttentionQuery must be created via NewGetOrdersNeedingAttentionQuery constructor",
	)
)

// GetOrdersNeedingAttentionQuery lists the work operators have to pick up by
// hand: orders no branch could serve, orders whose dispatch was exhausted,
// and the number of webhook events still deferred.
type GetOrdersNeedingAttentionQuery struct {
	guard guard.ConstructorGuard
}

func NewGetOrdersNeedingAttentionQuery() GetOrdersNeedingAttentionQuery {
	return GetOrdersNeedingAttentionQuery{guard: guard.NewConstructorGuard()}
}

func (q GetOrdersNeedingAttentionQuery) Validate() error {
	return q.guard.Validate(ErrGetOrdersNeedingAttentionQueryIsNotConstructed)
}

// AttentionOrder is one flagged order.
type AttentionOrder struct {
	ID               kernel.UUID
	Status           order.Status
	Version          int64
	NeedsBranch      bool
	DispatchFailed   bool
	DispatchAttempts int
	UpdatedAt        time.Time
}

type GetOrdersNeedingAttentionQueryResponse struct {
	Orders                []AttentionOrder
	DeferredWebhookEvents int64
}
