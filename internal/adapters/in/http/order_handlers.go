package http

import (
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req NewOrder
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	orderID := kernel.NewUUID()
	if req.ID != nil {
		id, err := kernel.UUIDFromString(req.ID.String())
		if err != nil {
			return s.fail(c, err)
		}
		orderID = id
	}

	address, err := kernel.NewAddress(req.DeliveryAddress.Street, req.DeliveryAddress.ZoneID)
	if err != nil {
		return s.fail(c, err)
	}

	items := make([]order.Item, 0, len(req.Items))
	for _, it := range req.Items {
		item, itemErr := order.NewItem(it.SKU, it.Name, it.Quantity)
		if itemErr != nil {
			return s.fail(c, itemErr)
		}
		items = append(items, item)
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, address, items, req.TotalAmount, req.CouponCode)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.CreateOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusCreated, CreatedOrder{Order: toOrder(result.Order), Discount: result.Discount})
}

// AssignBranch handles POST /orders/{orderId}/assign-branch.
func (s *Server) AssignBranch(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("orderId"))
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewAssignBranchCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.AssignBranch.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, BranchAssignment{Order: toOrder(result.Order), Assigned: result.Assigned})
}

// StartPreparation handles POST /orders/{orderId}/prepare.
func (s *Server) StartPreparation(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("orderId"))
	if err != nil {
		return s.fail(c, err)
	}

	var req VersionedRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	return s.transition(c, orderID, order.PreparationStarted, req.ExpectedVersion)
}

// ConfirmPayment handles POST /orders/{orderId}/confirm-payment.
func (s *Server) ConfirmPayment(c echo.Context) error {
	orderID, err := kernel.UUIDFromString(c.Param("orderId"))
	if err != nil {
		return s.fail(c, err)
	}

	var req VersionedRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewConfirmPaymentCommand(orderID, req.ExpectedVersion)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.ConfirmPayment.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, PaymentConfirmation{
		Order:           toOrder(result.Order),
		CouponRedeemed:  result.CouponRedeemed,
		CouponRejection: string(result.CouponRejection),
	})
}

// DispatchOrder handles POST /dispatch.
//
// An exhausted dispatch answers 502 with the reason; the order itself has
// been flagged and can be re-triggered by calling this endpoint again.
func (s *Server) DispatchOrder(c echo.Context) error {
	var req OrderRef
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	orderID, err := kernel.UUIDFromString(req.OrderID.String())
	if err != nil {
		return s.fail(c, err)
	}

	cmd, err := commands.NewDispatchOrderCommand(orderID)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.handlers.DispatchOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, Dispatch{
		Order:      toOrder(result.Order),
		TrackingID: result.TrackingID,
		Attempts:   result.Attempts,
	})
}

// CancelOrder handles POST /cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	var req OrderRef
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	orderID, err := kernel.UUIDFromString(req.OrderID.String())
	if err != nil {
		return s.fail(c, err)
	}

	return s.transition(c, orderID, order.AdminCancelled, req.ExpectedVersion)
}

// GetOrdersNeedingAttention handles GET /orders/attention.
func (s *Server) GetOrdersNeedingAttention(c echo.Context) error {
	resp, err := s.handlers.OrdersAttention.Handle(c.Request().Context(), queries.NewGetOrdersNeedingAttentionQuery())
	if err != nil {
		return s.fail(c, err)
	}

	out := Attention{
		Orders:                make([]AttentionOrder, len(resp.Orders)),
		DeferredWebhookEvents: resp.DeferredWebhookEvents,
	}
	for i, o := range resp.Orders {
		out.Orders[i] = AttentionOrder{
			ID:               o.ID.Bytes(),
			Status:           o.Status.String(),
			Version:          o.Version,
			NeedsBranch:      o.NeedsBranch,
			DispatchFailed:   o.DispatchFailed,
			DispatchAttempts: o.DispatchAttempts,
			UpdatedAt:        o.UpdatedAt,
		}
	}

	return c.JSON(http.StatusOK, out)
}

func (s *Server) transition(c echo.Context, orderID kernel.UUID, event order.Event, expectedVersion int64) error {
	cmd, err := commands.NewTransitionOrderCommand(orderID, event, expectedVersion, order.ActorAdmin, order.EventData{})
	if err != nil {
		return s.fail(c, err)
	}

	updated, err := s.handlers.TransitionOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, toOrder(updated))
}
