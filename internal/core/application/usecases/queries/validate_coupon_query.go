package queries

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrValidateCouponQueryIsNotConstructed = errors.New(
		"ValidateCouponQuery must be created via NewValidateCouponQuery constructor",
	)
)

// ValidateCouponQuery checks whether a coupon applies to a cart without
// consuming a use.
//
// Example:
//
//	query, err := NewValidateCouponQuery("spring10", 4200)
//	if err != nil {
//	    return err
//	}
//	resp, err := handler.Handle(ctx, query)
//	if reason, ok := coupon.RejectionReason(err); ok {
//	    fmt.Printf("coupon refused: %s\n", reason)
//	}
//
//nolint:recvcheck //using for validation
type ValidateCouponQuery struct {
	code      string
	cartTotal int64

	guard guard.ConstructorGuard
}

// NewValidateCouponQuery normalizes code and checks cartTotal is not negative.
func NewValidateCouponQuery(code string, cartTotal int64) (ValidateCouponQuery, error) {
	normalized := coupon.NormalizeCode(code)
	if normalized == "" {
		return ValidateCouponQuery{}, errs.NewValueIsRequiredError("code")
	}
	if cartTotal < 0 {
		return ValidateCouponQuery{}, errs.NewValueIsInvalidErrorWithCause("cart total", fmt.Errorf("%d is negative", cartTotal))
	}

	return ValidateCouponQuery{
		code:      normalized,
		cartTotal: cartTotal,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q ValidateCouponQuery) Code() string {
	return q.code
}

func (q ValidateCouponQuery) CartTotal() int64 {
	return q.cartTotal
}

func (q ValidateCouponQuery) Validate() error {
	return q.guard.Validate(ErrValidateCouponQueryIsNotConstructed)
}

// ValidateCouponQueryResponse is the priced outcome of an accepted coupon.
type ValidateCouponQueryResponse struct {
	Code       string
	CartTotal  int64
	Discount   int64
	FinalTotal int64
}
