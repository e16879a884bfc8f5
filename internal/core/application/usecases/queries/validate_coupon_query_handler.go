package queries

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/pkg/errs"
)

// CouponReader is the read side of ports.CouponRepository.
type CouponReader interface {
	Get(ctx context.Context, code string) (*coupon.Coupon, error)
}

// ValidateCouponQueryHandler prices a coupon against a cart total. Nothing
// is written; usage is consumed later by RedeemCouponCommandHandler.
type ValidateCouponQueryHandler struct {
	coupons CouponReader
	now     func() time.Time
}

// NewValidateCouponQueryHandler uses time.Now when now is nil.
func NewValidateCouponQueryHandler(coupons CouponReader, now func() time.Time) ValidateCouponQueryHandler {
	if now == nil {
		now = time.Now
	}
	return ValidateCouponQueryHandler{coupons: coupons, now: now}
}

// Handle returns the discount, or *coupon.RejectedError with one of NotFound,
// Inactive, Expired, BelowMinCart or LimitReached.
func (h ValidateCouponQueryHandler) Handle(
	ctx context.Context,
	query ValidateCouponQuery,
) (ValidateCouponQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ValidateCouponQueryResponse{}, err
	}

	c, err := h.coupons.Get(ctx, query.Code())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ValidateCouponQueryResponse{}, coupon.NewRejectedError(query.Code(), coupon.ReasonNotFound)
		}
		return ValidateCouponQueryResponse{}, err
	}

	discount, err := c.Evaluate(query.CartTotal(), h.now().UTC())
	if err != nil {
		return ValidateCouponQueryResponse{}, err
	}

	return ValidateCouponQueryResponse{
		Code:       c.Code(),
		CartTotal:  query.CartTotal(),
		Discount:   discount,
		FinalTotal: query.CartTotal() - discount,
	}, nil
}
