// Package couponrepo persists coupons. Redemption is a single conditional
// UPDATE so the usage cap holds under concurrent checkouts.
package couponrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/coupon"
)

type CouponDTO struct {
	Code         string `gorm:"primaryKey"`
	DiscountType string `gorm:"not null"`
	Value        int64  `gorm:"not null"`
	MinCartTotal int64  `gorm:"not null;default:0"`
	// UsageLimit 0 means unlimited.
	UsageLimit int `gorm:"not null;default:0"`
	UsageCount int `gorm:"not null;default:0"`
	ValidFrom  *time.Time
	ValidUntil *time.Time
	Active     bool `gorm:"not null;default:true"`
}

func (CouponDTO) TableName() string {
	return "coupons"
}

func fromDomain(c *coupon.Coupon) CouponDTO {
	return CouponDTO{
		Code:         c.Code(),
		DiscountType: string(c.DiscountType()),
		Value:        c.Value(),
		MinCartTotal: c.MinCartTotal(),
		UsageLimit:   c.UsageLimit(),
		UsageCount:   c.UsageCount(),
		ValidFrom:    nullableTime(c.ValidFrom()),
		ValidUntil:   nullableTime(c.ValidUntil()),
		Active:       c.Active(),
	}
}

func toDomain(dto CouponDTO) (*coupon.Coupon, error) {
	p := coupon.Params{
		Code:         dto.Code,
		DiscountType: coupon.DiscountType(dto.DiscountType),
		Value:        dto.Value,
		MinCartTotal: dto.MinCartTotal,
		UsageLimit:   dto.UsageLimit,
		UsageCount:   dto.UsageCount,
		Active:       dto.Active,
	}
	if dto.ValidFrom != nil {
		p.ValidFrom = dto.ValidFrom.UTC()
	}
	if dto.ValidUntil != nil {
		p.ValidUntil = dto.ValidUntil.UTC()
	}
	return coupon.NewCoupon(p)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
