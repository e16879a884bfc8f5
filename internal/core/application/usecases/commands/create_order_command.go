package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand registers an order handed over by checkout.
//
// Example:
//
//	addr, _ := kernel.NewAddress("12 Baker St", "north-1")
//	item, _ := order.NewItem("SKU-1", "Sourdough", 2)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), addr, []order.Item{item}, 2400, "summer10")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	address     kernel.Address
	items       []order.Item
	totalAmount int64
	couponCode  string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order data. The coupon code is
// optional and normalized to upper case.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	address kernel.Address,
	items []order.Item,
	totalAmount int64,
	couponCode string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		couponCode: coupon.NormalizeCode(couponCode),
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setAddress(address),
		cmd.setItems(items),
		cmd.setTotalAmount(totalAmount),
	); err != nil {
		return CreateOrderCommand{}, err
	}
	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) Address() kernel.Address {
	return c.address
}

func (c CreateOrderCommand) Items() []order.Item {
	return append([]order.Item(nil), c.items...)
}

// TotalAmount is the cart total in minor currency units, before discount.
func (c CreateOrderCommand) TotalAmount() int64 {
	return c.totalAmount
}

func (c CreateOrderCommand) CouponCode() string {
	return c.couponCode
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	c.address = address
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	c.items = append([]order.Item(nil), items...)
	return nil
}

func (c *CreateOrderCommand) setTotalAmount(total int64) error {
	if total < 0 {
		return errs.NewValueIsInvalidErrorWithCause("total amount", fmt.Errorf("%d is negative", total))
	}
	c.totalAmount = total
	return nil
}
