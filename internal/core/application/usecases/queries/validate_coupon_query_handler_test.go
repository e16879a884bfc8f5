package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 2, 7, 45, 0, 0, time.UTC)

type MockCouponReader struct {
	mock.Mock
}

func (m *MockCouponReader) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, code)
	if c := args.Get(0); c != nil {
		return c.(*coupon.Coupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func newCoupon(t *testing.T, p coupon.Params) *coupon.Coupon {
	t.Helper()
	c, err := coupon.NewCoupon(p)
	require.NoError(t, err)
	return c
}

func newHandler(reader queries.CouponReader) queries.ValidateCouponQueryHandler {
	return queries.NewValidateCouponQueryHandler(reader, func() time.Time { return fixedNow })
}

func TestNewValidateCouponQuery(t *testing.T) {
	q, err := queries.NewValidateCouponQuery("  spring10 ", 4200)
	require.NoError(t, err)
	assert.Equal(t, "SPRING10", q.Code())
	assert.Equal(t, int64(4200), q.CartTotal())
	require.NoError(t, q.Validate())

	_, err = queries.NewValidateCouponQuery(" ", 100)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = queries.NewValidateCouponQuery("SPRING10", -1)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.ErrorIs(t, queries.ValidateCouponQuery{}.Validate(), queries.ErrValidateCouponQueryIsNotConstructed)
}

func TestValidateCouponQueryHandler_PricesDiscount(t *testing.T) {
	tests := []struct {
		name     string
		params   coupon.Params
		total    int64
		discount int64
	}{
		{
			name:     "percentage rounds half up",
			params:   coupon.Params{Code: "TEN", DiscountType: coupon.Percentage, Value: 10, Active: true},
			total:    1235,
			discount: 124,
		},
		{
			name:     "fixed is capped at cart total",
			params:   coupon.Params{Code: "BIG", DiscountType: coupon.Fixed, Value: 5000, Active: true},
			total:    1800,
			discount: 1800,
		},
		{
			name: "window bounds are inclusive",
			params: coupon.Params{
				Code: "EDGE", DiscountType: coupon.Fixed, Value: 200, Active: true,
				ValidFrom: fixedNow, ValidUntil: fixedNow,
			},
			total:    1000,
			discount: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &MockCouponReader{}
			c := newCoupon(t, tt.params)
			reader.On("Get", mock.Anything, c.Code()).Return(c, nil).Once()

			q, err := queries.NewValidateCouponQuery(c.Code(), tt.total)
			require.NoError(t, err)

			resp, err := newHandler(reader).Handle(t.Context(), q)
			require.NoError(t, err)
			assert.Equal(t, tt.discount, resp.Discount)
			assert.Equal(t, tt.total-tt.discount, resp.FinalTotal)
			reader.AssertExpectations(t)
		})
	}
}

func TestValidateCouponQueryHandler_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params coupon.Params
		total  int64
		reason coupon.Reason
	}{
		{
			name:   "inactive",
			params: coupon.Params{Code: "OFF", DiscountType: coupon.Fixed, Value: 100},
			total:  1000,
			reason: coupon.ReasonInactive,
		},
		{
			name: "expired",
			params: coupon.Params{
				Code: "OLD", DiscountType: coupon.Fixed, Value: 100, Active: true,
				ValidUntil: fixedNow.Add(-time.Second),
			},
			total:  1000,
			reason: coupon.ReasonExpired,
		},
		{
			name: "below minimum cart",
			params: coupon.Params{
				Code: "MIN", DiscountType: coupon.Fixed, Value: 100, Active: true, MinCartTotal: 2000,
			},
			total:  1999,
			reason: coupon.ReasonBelowMinCart,
		},
		{
			name: "limit reached",
			params: coupon.Params{
				Code: "CAP", DiscountType: coupon.Fixed, Value: 100, Active: true, UsageLimit: 3, UsageCount: 3,
			},
			total:  1000,
			reason: coupon.ReasonLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &MockCouponReader{}
			c := newCoupon(t, tt.params)
			reader.On("Get", mock.Anything, c.Code()).Return(c, nil).Once()

			q, err := queries.NewValidateCouponQuery(c.Code(), tt.total)
			require.NoError(t, err)

			_, err = newHandler(reader).Handle(t.Context(), q)
			reason, ok := coupon.RejectionReason(err)
			require.True(t, ok, "expected rejection, got %v", err)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestValidateCouponQueryHandler_UnknownCode(t *testing.T) {
	reader := &MockCouponReader{}
	reader.On("Get", mock.Anything, "NOPE").Return(nil, errs.NewObjectNotFoundError("coupon", "NOPE")).Once()

	q, err := queries.NewValidateCouponQuery("nope", 1000)
	require.NoError(t, err)

	_, err = newHandler(reader).Handle(t.Context(), q)
	reason, ok := coupon.RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, coupon.ReasonNotFound, reason)
}

func TestValidateCouponQueryHandler_StorageErrorPropagates(t *testing.T) {
	reader := &MockCouponReader{}
	boom := errors.New("connection reset")
	reader.On("Get", mock.Anything, "SPRING10").Return(nil, boom).Once()

	q, err := queries.NewValidateCouponQuery("SPRING10", 1000)
	require.NoError(t, err)

	_, err = newHandler(reader).Handle(t.Context(), q)
	require.ErrorIs(t, err, boom)
	_, rejected := coupon.RejectionReason(err)
	assert.False(t, rejected)
}
