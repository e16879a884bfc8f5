package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrRedeemCouponCommandIsNotConstructed = errors.New(
	"RedeemCouponCommand must be created via NewRedeemCouponCommand constructor",
)

// RedeemCouponCommand consumes one use of a coupon.
type RedeemCouponCommand struct { //nolint:recvcheck //using for validation
	code string

	guard guard.ConstructorGuard
}

func NewRedeemCouponCommand(code string) (RedeemCouponCommand, error) {
	normalized := coupon.NormalizeCode(code)
	if normalized == "" {
		return RedeemCouponCommand{}, errs.NewValueIsRequiredError("code")
	}
	return RedeemCouponCommand{code: normalized, guard: guard.NewConstructorGuard()}, nil
}

func (c RedeemCouponCommand) Validate() error {
	return c.guard.Validate(ErrRedeemCouponCommandIsNotConstructed)
}

func (c RedeemCouponCommand) Code() string {
	return c.code
}
