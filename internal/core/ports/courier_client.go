package ports

import (
	"context"
	"errors"
)

var (
	// ErrDispatchTimeout marks an attempt that hit its deadline.
	ErrDispatchTimeout = errors.New("dispatch timeout")
	// ErrDispatchRejected marks a 4xx answer; retrying cannot help.
	ErrDispatchRejected = errors.New("dispatch rejected")
	// ErrDispatchUnavailable marks network failures and 5xx answers.
	ErrDispatchUnavailable = errors.New("courier platform unavailable")
)

// DeliveryItem is an order line as the courier platform sees it.
type DeliveryItem struct {
	SKU      string
	Name     string
	Quantity int
}

// DeliveryRequest is the body of the platform's create-delivery call.
type DeliveryRequest struct {
	OrderID        string
	BranchCode     string
	Street         string
	Zone           string
	Items          []DeliveryItem
	IdempotencyKey string
}

// CourierClient performs one create-delivery attempt. Retrying is the
// caller's business; errors wrap one of the ErrDispatch sentinels.
type CourierClient interface {
	CreateDelivery(ctx context.Context, req DeliveryRequest) (trackingID string, err error)
}
