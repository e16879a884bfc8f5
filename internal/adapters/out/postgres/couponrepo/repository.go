package couponrepo

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// redeemableCondition mirrors coupon.Coupon's eligibility rules, minus the
// cart minimum which only applies at validation time.
const redeemableCondition = `code = ?
	AND active
	AND (valid_from IS NULL OR valid_from <= ?)
	AND (valid_until IS NULL OR valid_until >= ?)
	AND (usage_limit = 0 OR usage_count < usage_limit)`

// GormCouponRepository implements ports.CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Add(ctx context.Context, c *coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dto := fromDomain(c)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormCouponRepository) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	code = coupon.NormalizeCode(code)
	if code == "" {
		return nil, errs.NewValueIsRequiredError("code")
	}

	var dto CouponDTO
	if err := r.db.WithContext(ctx).First(&dto, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("coupon", code)
		}
		return nil, err
	}

	return toDomain(dto)
}

// IncrementUsage consumes one use if the coupon is redeemable at now. It
// reports false, with no error, when no row qualified.
func (r *GormCouponRepository) IncrementUsage(ctx context.Context, code string, now time.Time) (bool, error) {
	code = coupon.NormalizeCode(code)
	if code == "" {
		return false, errs.NewValueIsRequiredError("code")
	}

	result := r.db.WithContext(ctx).
		Model(&CouponDTO{}).
		Where(redeemableCondition, code, now, now).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
