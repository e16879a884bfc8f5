package http

import (
	"time"

	"fulfillment/internal/core/domain/model/order"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Error is the body of every failed admin request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// WebhookAck is the body of every webhook response.
type WebhookAck struct {
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type Address struct {
	Street string `json:"street"`
	ZoneID string `json:"zoneId"`
}

type Item struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type NewOrder struct {
	ID              *openapi_types.UUID `json:"id,omitempty"`
	DeliveryAddress Address             `json:"deliveryAddress"`
	Items           []Item              `json:"items"`
	TotalAmount     int64               `json:"totalAmount"`
	CouponCode      string              `json:"couponCode,omitempty"`
}

type OrderRef struct {
	OrderID         openapi_types.UUID `json:"orderId"`
	ExpectedVersion int64              `json:"expectedVersion,omitempty"`
}

type VersionedRequest struct {
	ExpectedVersion int64 `json:"expectedVersion,omitempty"`
}

type Order struct {
	ID               openapi_types.UUID  `json:"id"`
	Status           string              `json:"status"`
	Version          int64               `json:"version"`
	BranchID         *openapi_types.UUID `json:"branchId,omitempty"`
	TrackingID       *string             `json:"trackingId,omitempty"`
	CourierStatus    *string             `json:"courierStatus,omitempty"`
	DispatchAttempts int                 `json:"dispatchAttempts"`
	DispatchFailed   bool                `json:"dispatchFailed"`
	NeedsBranch      bool                `json:"needsBranch"`
	PaymentConfirmed bool                `json:"paymentConfirmed"`
	TotalAmount      int64               `json:"totalAmount"`
	CouponCode       *string             `json:"couponCode,omitempty"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

type CreatedOrder struct {
	Order    Order `json:"order"`
	Discount int64 `json:"discount"`
}

type BranchAssignment struct {
	Order    Order `json:"order"`
	Assigned bool  `json:"assigned"`
}

type PaymentConfirmation struct {
	Order           Order  `json:"order"`
	CouponRedeemed  bool   `json:"couponRedeemed"`
	CouponRejection string `json:"couponRejection,omitempty"`
}

type Dispatch struct {
	Order      Order  `json:"order"`
	TrackingID string `json:"trackingId"`
	Attempts   int    `json:"attempts"`
}

type ValidateCouponRequest struct {
	Code      string `json:"code"`
	CartTotal int64  `json:"cartTotal"`
}

type RedeemCouponRequest struct {
	Code string `json:"code"`
}

type CouponQuote struct {
	Code       string `json:"code"`
	CartTotal  int64  `json:"cartTotal"`
	Discount   int64  `json:"discount"`
	FinalTotal int64  `json:"finalTotal"`
}

type AttentionOrder struct {
	ID               openapi_types.UUID `json:"id"`
	Status           string             `json:"status"`
	Version          int64              `json:"version"`
	NeedsBranch      bool               `json:"needsBranch"`
	DispatchFailed   bool               `json:"dispatchFailed"`
	DispatchAttempts int                `json:"dispatchAttempts"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

type Attention struct {
	Orders                []AttentionOrder `json:"orders"`
	DeferredWebhookEvents int64            `json:"deferredWebhookEvents"`
}

type StoreSecretRequest struct {
	Secret string `json:"secret"`
}

type SecretVersion struct {
	Platform   string `json:"platform"`
	KeyVersion int    `json:"keyVersion"`
}

type Rotation struct {
	KeyVersion int `json:"keyVersion"`
	Rotated    int `json:"rotated"`
	UpToDate   int `json:"upToDate"`
}

type Purge struct {
	KeyVersion int   `json:"keyVersion"`
	Deleted    int64 `json:"deleted"`
}

func toOrder(o *order.Order) Order {
	resp := Order{
		ID:               o.ID().Bytes(),
		Status:           o.Status().String(),
		Version:          o.Version(),
		TrackingID:       o.TrackingID(),
		CourierStatus:    o.CourierStatus(),
		DispatchAttempts: o.DispatchAttempts(),
		DispatchFailed:   o.DispatchFailed(),
		NeedsBranch:      o.NeedsBranch(),
		PaymentConfirmed: o.PaymentConfirmed(),
		TotalAmount:      o.TotalAmount(),
		CouponCode:       o.CouponCode(),
		UpdatedAt:        o.UpdatedAt(),
	}
	if b := o.Branch(); b != nil {
		id := b.Bytes()
		resp.BranchID = &id
	}
	return resp
}
