package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/branch"
	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 2, 7, 45, 0, 0, time.UTC)

func fixedClock() commands.Clock {
	return func() time.Time { return fixedNow }
}

func testAddress(t *testing.T, zone string) kernel.Address {
	t.Helper()
	addr, err := kernel.NewAddress("7 Rye Lane", zone)
	require.NoError(t, err)
	return addr
}

func testItems(t *testing.T) []order.Item {
	t.Helper()
	loaf, err := order.NewItem("SKU-SOURDOUGH", "Sourdough loaf", 1)
	require.NoError(t, err)
	buns, err := order.NewItem("SKU-CINNAMON", "Cinnamon bun", 6)
	require.NoError(t, err)
	return []order.Item{loaf, buns}
}

type orderOption func(*order.Snapshot)

func withBranch(id kernel.UUID) orderOption {
	return func(s *order.Snapshot) { s.BranchID = &id }
}

func withCoupon(code string) orderOption {
	return func(s *order.Snapshot) { s.CouponCode = &code }
}

func withTracking(id string) orderOption {
	return func(s *order.Snapshot) { s.TrackingID = &id }
}

func restoredOrder(t *testing.T, status order.Status, version int64, opts ...orderOption) *order.Order {
	t.Helper()
	s := order.Snapshot{
		ID:          kernel.NewUUID(),
		Status:      status,
		Version:     version,
		TotalAmount: 4200,
		Address:     testAddress(t, "north-1"),
		Items:       testItems(t),
		CreatedAt:   fixedNow.Add(-time.Hour),
		UpdatedAt:   fixedNow.Add(-time.Hour),
	}
	for _, opt := range opts {
		opt(&s)
	}
	o, err := order.RestoreOrder(s)
	require.NoError(t, err)
	return o
}

// cloneOrder hands out a fresh copy so a mock Get never returns a pointer
// the handler already mutated.
func cloneOrder(t *testing.T, o *order.Order) *order.Order {
	t.Helper()
	c, err := order.RestoreOrder(o.Snapshot())
	require.NoError(t, err)
	return c
}

func testBranch(t *testing.T, code string, priority int, zones ...string) *branch.Branch {
	t.Helper()
	b, err := branch.NewBranch(kernel.NewUUID(), code, zones, true, priority)
	require.NoError(t, err)
	return b
}

func testCoupon(t *testing.T, p coupon.Params) *coupon.Coupon {
	t.Helper()
	if p.DiscountType == "" {
		p.DiscountType = coupon.Percentage
	}
	if p.Value == 0 {
		p.Value = 10
	}
	c, err := coupon.NewCoupon(p)
	require.NoError(t, err)
	return c
}
