package queries

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/webhook"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrdersNeedingAttentionQueryHandler reads straight from the tables the
// repositories own; no aggregate is rebuilt.
type GetOrdersNeedingAttentionQueryHandler struct {
	db *gorm.DB
}

func NewGetOrdersNeedingAttentionQueryHandler(db *gorm.DB) GetOrdersNeedingAttentionQueryHandler {
	return GetOrdersNeedingAttentionQueryHandler{db: db}
}

// Handle returns flagged non-terminal orders, oldest change first.
func (h GetOrdersNeedingAttentionQueryHandler) Handle(
	ctx context.Context,
	query GetOrdersNeedingAttentionQuery,
) (GetOrdersNeedingAttentionQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrdersNeedingAttentionQueryResponse{}, err
	}

	resp := GetOrdersNeedingAttentionQueryResponse{Orders: make([]AttentionOrder, 0)}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			version,
			needs_branch,
			dispatch_failed,
			dispatch_attempts,
			updated_at
		FROM orders
		WHERE (needs_branch OR dispatch_failed)
			AND status NOT IN (?, ?)
		ORDER BY updated_at, id
	`, order.Delivered, order.Cancelled).Rows()
	if err != nil {
		return GetOrdersNeedingAttentionQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item   AttentionOrder
			id     uuid.UUID
			status int
		)
		err = rows.Scan(
			&id,
			&status,
			&item.Version,
			&item.NeedsBranch,
			&item.DispatchFailed,
			&item.DispatchAttempts,
			&item.UpdatedAt,
		)
		if err != nil {
			return GetOrdersNeedingAttentionQueryResponse{}, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return GetOrdersNeedingAttentionQueryResponse{}, idErr
		}
		item.ID = orderID
		item.Status = order.Status(status)
		item.UpdatedAt = item.UpdatedAt.UTC()
		resp.Orders = append(resp.Orders, item)
	}
	if err = rows.Err(); err != nil {
		return GetOrdersNeedingAttentionQueryResponse{}, err
	}

	err = h.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM courier_webhook_events WHERE outcome = ?`,
		string(webhook.OutcomeDeferred),
	).Scan(&resp.DeferredWebhookEvents).Error
	if err != nil {
		return GetOrdersNeedingAttentionQueryResponse{}, err
	}

	return resp, nil
}
