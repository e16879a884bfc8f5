package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// RedeemCouponCommandHandler increments a coupon's usage count. The cap is
// enforced by a single conditional update in storage, so concurrent
// checkouts racing for the last slot cannot both win.
type RedeemCouponCommandHandler struct {
	uowFactory CouponUoWFactory
	metrics    *metrics.Metrics
	clock      Clock
}

func NewRedeemCouponCommandHandler(uowFactory CouponUoWFactory, m *metrics.Metrics, clock Clock) RedeemCouponCommandHandler {
	return RedeemCouponCommandHandler{uowFactory: uowFactory, metrics: m, clock: clock}
}

// Handle returns nil on success or *coupon.RejectedError explaining why no
// use was consumed.
func (h RedeemCouponCommandHandler) Handle(ctx context.Context, cmd RedeemCouponCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := redeemCoupon(ctx, uow.CouponRepository(), cmd.Code(), h.clock.now()); err != nil {
		h.recordResult(err)
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	h.recordResult(nil)
	return nil
}

func (h RedeemCouponCommandHandler) recordResult(err error) {
	if err == nil {
		h.metrics.CouponRedemption("redeemed")
		return
	}
	if reason, ok := coupon.RejectionReason(err); ok {
		h.metrics.CouponRedemption(string(reason))
	}
}

// redeemCoupon performs the conditional increment and, when nothing was
// updated, re-reads the row only to explain why.
func redeemCoupon(ctx context.Context, repo ports.CouponRepository, code string, now time.Time) error {
	updated, err := repo.IncrementUsage(ctx, code, now)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	c, err := repo.Get(ctx, code)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return coupon.NewRejectedError(code, coupon.ReasonNotFound)
	}
	if err != nil {
		return err
	}

	switch {
	case !c.Active():
		return coupon.NewRejectedError(code, coupon.ReasonInactive)
	case !c.InWindow(now):
		return coupon.NewRejectedError(code, coupon.ReasonExpired)
	default:
		return coupon.NewRejectedError(code, coupon.ReasonLimitReached)
	}
}
