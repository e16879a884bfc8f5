package commands

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// ConfirmPaymentResult reports the confirmed order and what happened to its
// coupon. CouponRejection is empty when the coupon was redeemed or the order
// has none.
type ConfirmPaymentResult struct {
	Order           *order.Order
	CouponRedeemed  bool
	CouponRejection coupon.Reason
}

// ConfirmPaymentCommandHandler applies PaymentConfirmed and redeems the
// order's coupon in the same transaction. Payment is money already taken, so
// a coupon that ran out meanwhile does not block confirmation; the rejection
// is returned for the caller to reconcile.
type ConfirmPaymentCommandHandler struct {
	uowFactory UoWFactory
	notifier   statusNotifier
	clock      Clock
	logger     *slog.Logger
}

func NewConfirmPaymentCommandHandler(
	uowFactory UoWFactory,
	publisher ports.OrderEventPublisher,
	m *metrics.Metrics,
	clock Clock,
	logger *slog.Logger,
) ConfirmPaymentCommandHandler {
	logger = loggerOrDefault(logger, "confirm-payment")
	return ConfirmPaymentCommandHandler{
		uowFactory: uowFactory,
		notifier:   statusNotifier{publisher: publisher, metrics: m, logger: logger},
		clock:      clock,
		logger:     logger,
	}
}

func (h ConfirmPaymentCommandHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (ConfirmPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return ConfirmPaymentResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ConfirmPaymentResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return ConfirmPaymentResult{}, err
	}
	if o.PaymentConfirmed() {
		return ConfirmPaymentResult{Order: o}, nil
	}

	if cmd.ExpectedVersion() > 0 && o.Version() != cmd.ExpectedVersion() {
		return ConfirmPaymentResult{}, errs.NewConcurrencyConflictError(
			"order", o.ID().String(), cmd.ExpectedVersion(), o.Version())
	}

	outcome, err := applyTransition(ctx, orderRepo, o, order.PaymentConfirmed, order.EventData{}, order.ActorAdmin, h.clock)
	if err != nil {
		return ConfirmPaymentResult{}, err
	}

	result := ConfirmPaymentResult{Order: outcome.Order}
	if code := outcome.Order.CouponCode(); code != nil {
		redeemErr := redeemCoupon(ctx, uow.CouponRepository(), *code, h.clock.now())
		reason, rejected := coupon.RejectionReason(redeemErr)
		switch {
		case redeemErr == nil:
			result.CouponRedeemed = true
		case rejected:
			result.CouponRejection = reason
		default:
			return ConfirmPaymentResult{}, redeemErr
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return ConfirmPaymentResult{}, err
	}

	if result.CouponRejection != "" {
		h.logger.WarnContext(ctx, "coupon could not be redeemed at payment confirmation",
			"order_id", o.ID().String(), "reason", string(result.CouponRejection))
	}
	h.notifier.committed(ctx, outcome)
	return result, nil
}
