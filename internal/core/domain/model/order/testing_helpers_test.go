package order_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func validAddress(t *testing.T) kernel.Address {
	t.Helper()
	addr, err := kernel.NewAddress("12 Baker St", "north-1")
	require.NoError(t, err)
	return addr
}

func validItems(t *testing.T) []order.Item {
	t.Helper()
	item, err := order.NewItem("SKU-CROISSANT", "Croissant", 4)
	require.NoError(t, err)
	return []order.Item{item}
}

// orderIn restores an order resting in status with every field a later state
// would require already populated.
func orderIn(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	branch := kernel.NewUUID()
	tracking := "TRK-1"

	s := order.Snapshot{
		ID:          kernel.NewUUID(),
		Status:      status,
		Version:     5,
		TotalAmount: 1200,
		Address:     validAddress(t),
		Items:       validItems(t),
		CreatedAt:   fixedNow,
		UpdatedAt:   fixedNow,
	}
	if status != order.BranchPending {
		s.BranchID = &branch
	} else {
		s.NeedsBranch = true
	}
	if status >= order.DispatchedToCourier {
		s.TrackingID = &tracking
	}

	o, err := order.RestoreOrder(s)
	require.NoError(t, err)
	return o
}

func dataFor(event order.Event) order.EventData {
	branch := kernel.NewUUID()
	switch event {
	case order.BranchAssigned:
		return order.EventData{BranchID: &branch}
	case order.DispatchSucceeded:
		return order.EventData{TrackingID: "TRK-9", DispatchAttempts: 1}
	case order.DispatchFailed:
		return order.EventData{DispatchAttempts: 3}
	default:
		return order.EventData{}
	}
}
