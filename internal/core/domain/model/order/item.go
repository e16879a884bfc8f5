package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Item is one line of an order as handed to the courier platform.
type Item struct {
	SKU      string
	Name     string
	Quantity int
}

// NewItem validates a line item.
func NewItem(sku, name string, quantity int) (Item, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Item{}, errs.NewValueIsRequiredError("item sku")
	}
	if quantity <= 0 {
		return Item{}, errs.NewValueIsInvalidErrorWithCause("item quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return Item{SKU: sku, Name: strings.TrimSpace(name), Quantity: quantity}, nil
}
