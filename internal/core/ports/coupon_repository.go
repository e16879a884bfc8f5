package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/coupon"
)

// CouponRepository owns coupon rows. Usage counts change only through
// IncrementUsage.
type CouponRepository interface {
	// Add persists a new coupon.
	Add(ctx context.Context, c *coupon.Coupon) error

	// Get loads a coupon by its normalized code. A missing code is
	// *errs.ObjectNotFoundError.
	Get(ctx context.Context, code string) (*coupon.Coupon, error)

	// IncrementUsage adds one redemption in a single conditional statement:
	// the row changes only when the coupon is active, now is inside its
	// validity window and the cap is not reached. It reports whether a row
	// changed.
	IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error)
}
