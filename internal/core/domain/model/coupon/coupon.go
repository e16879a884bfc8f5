package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrCouponIsNotConstructed is returned for a zero-value Coupon.
var ErrCouponIsNotConstructed = errors.New("Coupon must be created via NewCoupon constructor")

// DiscountType selects how Value is interpreted.
type DiscountType string

const (
	// Percentage discounts Value percent of the cart total.
	Percentage DiscountType = "percentage"
	// Fixed discounts Value minor currency units.
	Fixed DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// NormalizeCode returns the canonical, upper-case form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Params groups the attributes of a coupon for NewCoupon.
type Params struct {
	Code         string
	DiscountType DiscountType
	Value        int64
	MinCartTotal int64
	// UsageLimit of 0 means unlimited.
	UsageLimit int
	UsageCount int
	// Zero ValidFrom or ValidUntil leaves that side of the window open.
	ValidFrom  time.Time
	ValidUntil time.Time
	Active     bool
}

// Coupon is a discount code with a usage cap and a validity window.
type Coupon struct {
	code         string
	discountType DiscountType
	value        int64
	minCartTotal int64
	usageLimit   int
	usageCount   int
	validFrom    time.Time
	validUntil   time.Time
	active       bool

	isConstructed bool
}

// NewCoupon validates p and builds a Coupon. It is used both for new codes
// and for rows loaded from storage.
func NewCoupon(p Params) (*Coupon, error) {
	c := &Coupon{
		code:          NormalizeCode(p.Code),
		discountType:  p.DiscountType,
		value:         p.Value,
		minCartTotal:  p.MinCartTotal,
		usageLimit:    p.UsageLimit,
		usageCount:    p.UsageCount,
		validFrom:     p.ValidFrom,
		validUntil:    p.ValidUntil,
		active:        p.Active,
		isConstructed: true,
	}

	var errList []error
	if c.code == "" {
		errList = append(errList, errs.NewValueIsRequiredError("code"))
	}
	switch p.DiscountType {
	case Percentage:
		if p.Value <= 0 || p.Value > 100 {
			errList = append(errList, errs.NewValueIsOutOfRangeError("value", p.Value, 1, 100))
		}
	case Fixed:
		if p.Value <= 0 {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("value", fmt.Errorf("%d is not greater than 0", p.Value)))
		}
	default:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("discount type", fmt.Errorf("%q is not supported", p.DiscountType)))
	}
	if p.MinCartTotal < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("min cart total", fmt.Errorf("%d is negative", p.MinCartTotal)))
	}
	if p.UsageLimit < 0 || p.UsageCount < 0 {
		errList = append(errList, errs.NewValueIsInvalidError("usage limit and count must not be negative"))
	}
	if p.UsageLimit > 0 && p.UsageCount > p.UsageLimit {
		errList = append(errList, errs.NewValueIsOutOfRangeError("usage count", p.UsageCount, 0, p.UsageLimit))
	}
	if !p.ValidFrom.IsZero() && !p.ValidUntil.IsZero() && p.ValidUntil.Before(p.ValidFrom) {
		errList = append(errList, errs.NewValueIsInvalidError("valid until precedes valid from"))
	}

	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coupon) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrCouponIsNotConstructed
	}
	return nil
}

func (c *Coupon) Code() string {
	return c.code
}

func (c *Coupon) DiscountType() DiscountType {
	return c.discountType
}

func (c *Coupon) Value() int64 {
	return c.value
}

func (c *Coupon) MinCartTotal() int64 {
	return c.minCartTotal
}

func (c *Coupon) UsageLimit() int {
	return c.usageLimit
}

func (c *Coupon) UsageCount() int {
	return c.usageCount
}

func (c *Coupon) ValidFrom() time.Time {
	return c.validFrom
}

func (c *Coupon) ValidUntil() time.Time {
	return c.validUntil
}

func (c *Coupon) Active() bool {
	return c.active
}

// InWindow reports whether now falls inside [validFrom, validUntil].
func (c *Coupon) InWindow(now time.Time) bool {
	if !c.validFrom.IsZero() && now.Before(c.validFrom) {
		return false
	}
	if !c.validUntil.IsZero() && now.After(c.validUntil) {
		return false
	}
	return true
}

// IsExhausted reports whether a capped coupon has no redemptions left.
func (c *Coupon) IsExhausted() bool {
	return c.usageLimit > 0 && c.usageCount >= c.usageLimit
}

// Evaluate checks the coupon against a cart total at instant now and returns
// the discount in minor units. Rejections are *RejectedError.
//
// Checks run in order: Inactive, Expired, BelowMinCart, LimitReached.
func (c *Coupon) Evaluate(cartTotal int64, now time.Time) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	if cartTotal < 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("cart total", fmt.Errorf("%d is negative", cartTotal))
	}

	switch {
	case !c.active:
		return 0, NewRejectedError(c.code, ReasonInactive)
	case !c.InWindow(now):
		return 0, NewRejectedError(c.code, ReasonExpired)
	case cartTotal < c.minCartTotal:
		return 0, NewRejectedError(c.code, ReasonBelowMinCart)
	case c.IsExhausted():
		return 0, NewRejectedError(c.code, ReasonLimitReached)
	}

	return c.Discount(cartTotal), nil
}

// Discount computes the discount for cartTotal without any eligibility
// checks. Percentages round half-up to the minor unit; the result never
// exceeds cartTotal.
func (c *Coupon) Discount(cartTotal int64) int64 {
	var discount int64
	switch c.discountType {
	case Percentage:
		discount = decimal.NewFromInt(cartTotal).
			Mul(decimal.NewFromInt(c.value)).
			Div(hundred).
			Round(0).
			IntPart()
	case Fixed:
		discount = c.value
	}
	return min(discount, cartTotal)
}
