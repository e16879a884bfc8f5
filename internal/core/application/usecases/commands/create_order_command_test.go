package commands_test

import (
	"testing"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateOrderCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()
	addr := testAddress(t, "north-1")
	items := testItems(t)

	cmd, err := commands.NewCreateOrderCommand(id, addr, items, 4200, " summer10 ")
	require.NoError(t, err)
	require.NoError(t, cmd.Validate())
	assert.Equal(t, id, cmd.OrderID())
	assert.Equal(t, addr, cmd.Address())
	assert.Equal(t, items, cmd.Items())
	assert.Equal(t, int64(4200), cmd.TotalAmount())
	assert.Equal(t, "SUMMER10", cmd.CouponCode())
}

func TestNewCreateOrderCommand_WithoutCoupon(t *testing.T) {
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), testAddress(t, "north-1"), testItems(t), 0, "")
	require.NoError(t, err)
	assert.Empty(t, cmd.CouponCode())
}

func TestNewCreateOrderCommand_InvalidOrderID(t *testing.T) {
	_, err := commands.NewCreateOrderCommand(kernel.UUID{}, testAddress(t, "north-1"), testItems(t), 100, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestNewCreateOrderCommand_MissingItems(t *testing.T) {
	_, err := commands.NewCreateOrderCommand(kernel.NewUUID(), testAddress(t, "north-1"), []order.Item{}, 100, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

func TestNewCreateOrderCommand_NegativeTotal(t *testing.T) {
	_, err := commands.NewCreateOrderCommand(kernel.NewUUID(), testAddress(t, "north-1"), testItems(t), -1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestCreateOrderCommand_NotConstructed(t *testing.T) {
	var cmd commands.CreateOrderCommand
	require.ErrorIs(t, cmd.Validate(), commands.ErrCreateOrderCommandIsNotConstructed)
}
