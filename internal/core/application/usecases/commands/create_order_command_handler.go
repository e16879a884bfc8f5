package commands

import (
	"context"
	"errors"
	"log/slog"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// CreateOrderResult is the stored order plus the coupon discount granted
// at creation time, 0 without a coupon.
type CreateOrderResult struct {
	Order    *order.Order
	Discount int64
}

// CreateOrderCommandHandler persists a new order, validates its coupon and
// resolves its branch in one transaction. An order no branch serves is
// still created; it lands in BranchPending with the needsBranch flag.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	resolver   services.BranchResolver
	notifier   statusNotifier
	clock      Clock
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory UoWFactory,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	logger = loggerOrDefault(logger, "create-order")
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		resolver:   services.NewBranchResolver(),
		notifier:   statusNotifier{publisher: publisher, metrics: m, logger: logger},
		clock:      clock,
		logger:     logger,
	}
}

// Handle returns *coupon.RejectedError when the coupon cannot be used; no
// order is stored in that case.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock.now()

	var discount int64
	if cmd.CouponCode() != "" {
		c, err := uow.CouponRepository().Get(ctx, cmd.CouponCode())
		if errors.Is(err, errs.ErrObjectNotFound) {
			return CreateOrderResult{}, coupon.NewRejectedError(cmd.CouponCode(), coupon.ReasonNotFound)
		}
		if err != nil {
			return CreateOrderResult{}, err
		}
		if discount, err = c.Evaluate(cmd.TotalAmount(), now); err != nil {
			return CreateOrderResult{}, err
		}
	}

	o, err := order.NewOrder(cmd.OrderID(), cmd.Address(), cmd.Items(), cmd.TotalAmount(), cmd.CouponCode(), now)
	if err != nil {
		return CreateOrderResult{}, err
	}

	orderRepo := uow.OrderRepository()
	if err = orderRepo.Add(ctx, o); err != nil {
		return CreateOrderResult{}, err
	}

	branches, err := uow.BranchRepository().ListActive(ctx)
	if err != nil {
		return CreateOrderResult{}, err
	}
	assignment, err := h.resolver.Resolve(o.Address(), branches)
	if err != nil {
		return CreateOrderResult{}, err
	}
	event, data := assignment.Event()

	outcome, err := applyTransition(ctx, orderRepo, o, event, data, order.ActorSystem, h.clock)
	if err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	if !assignment.Assigned() {
		h.logger.WarnContext(ctx, "no branch serves delivery zone, order needs manual assignment",
			"order_id", o.ID().String(), "zone", string(o.Address().Zone()))
	}
	h.notifier.committed(ctx, outcome)

	return CreateOrderResult{Order: outcome.Order, Discount: discount}, nil
}
