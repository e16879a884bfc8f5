// Package orderrepo persists the order aggregate and its audit trail.
package orderrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table. Version backs the
// compare-and-swap in Update; the flag columns are indexed because the
// attention query filters on them.
type OrderDTO struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Status           int        `gorm:"not null;index"`
	Version          int64      `gorm:"not null"`
	BranchID         *uuid.UUID `gorm:"type:uuid;index"`
	TrackingID       *string
	CourierStatus    *string
	DispatchAttempts int   `gorm:"not null;default:0"`
	DispatchFailed   bool  `gorm:"not null;default:false;index"`
	NeedsBranch      bool  `gorm:"not null;default:false;index"`
	PaymentConfirmed bool  `gorm:"not null;default:false"`
	TotalAmount      int64 `gorm:"not null"`
	CouponCode       *string
	Address          AddressDTO `gorm:"embedded;embeddedPrefix:address_"`
	Items            []ItemDTO  `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime:false"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type AddressDTO struct {
	Street string
	Zone   string `gorm:"index"`
}

type ItemDTO struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// AuditDTO is one applied transition. (order_id, version) is unique, so two
// writers can never both record the same step.
type AuditDTO struct {
	ID         string    `gorm:"type:char(26);primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_order_audit_order_version"`
	Version    int64     `gorm:"not null;uniqueIndex:idx_order_audit_order_version"`
	FromStatus int       `gorm:"not null"`
	ToStatus   int       `gorm:"not null"`
	Event      int       `gorm:"not null"`
	Actor      string    `gorm:"not null"`
	OccurredAt time.Time `gorm:"not null"`
}

func (AuditDTO) TableName() string {
	return "order_audit"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	var branchID *uuid.UUID
	if s.BranchID != nil {
		raw := s.BranchID.Bytes()
		branchID = &raw
	}

	items := make([]ItemDTO, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, ItemDTO{SKU: item.SKU, Name: item.Name, Quantity: item.Quantity})
	}

	return OrderDTO{
		ID:               s.ID.Bytes(),
		Status:           int(s.Status),
		Version:          s.Version,
		BranchID:         branchID,
		TrackingID:       s.TrackingID,
		CourierStatus:    s.CourierStatus,
		DispatchAttempts: s.DispatchAttempts,
		DispatchFailed:   s.DispatchFailed,
		NeedsBranch:      s.NeedsBranch,
		PaymentConfirmed: s.PaymentConfirmed,
		TotalAmount:      s.TotalAmount,
		CouponCode:       s.CouponCode,
		Address: AddressDTO{
			Street: s.Address.Street(),
			Zone:   string(s.Address.Zone()),
		},
		Items:     items,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var branchID *kernel.UUID
	if dto.BranchID != nil {
		bID, branchErr := kernel.UUIDFromBytes((*dto.BranchID)[:])
		if branchErr != nil {
			return nil, branchErr
		}
		branchID = &bID
	}

	address, err := kernel.NewAddress(dto.Address.Street, dto.Address.Zone)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, item := range dto.Items {
		items = append(items, order.Item{SKU: item.SKU, Name: item.Name, Quantity: item.Quantity})
	}

	return order.RestoreOrder(order.Snapshot{
		ID:               id,
		Status:           order.Status(dto.Status),
		Version:          dto.Version,
		BranchID:         branchID,
		TrackingID:       dto.TrackingID,
		CourierStatus:    dto.CourierStatus,
		DispatchAttempts: dto.DispatchAttempts,
		DispatchFailed:   dto.DispatchFailed,
		NeedsBranch:      dto.NeedsBranch,
		PaymentConfirmed: dto.PaymentConfirmed,
		TotalAmount:      dto.TotalAmount,
		CouponCode:       dto.CouponCode,
		Address:          address,
		Items:            items,
		CreatedAt:        dto.CreatedAt.UTC(),
		UpdatedAt:        dto.UpdatedAt.UTC(),
	})
}

func auditFromDomain(r order.AuditRecord) AuditDTO {
	return AuditDTO{
		ID:         r.ID,
		OrderID:    r.OrderID.Bytes(),
		Version:    r.Version,
		FromStatus: int(r.From),
		ToStatus:   int(r.To),
		Event:      int(r.Event),
		Actor:      string(r.Actor),
		OccurredAt: r.OccurredAt,
	}
}

func auditToDomain(dto AuditDTO) (order.AuditRecord, error) {
	id, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.AuditRecord{}, err
	}
	return order.AuditRecord{
		ID:         dto.ID,
		OrderID:    id,
		From:       order.Status(dto.FromStatus),
		To:         order.Status(dto.ToStatus),
		Event:      order.Event(dto.Event),
		Actor:      order.Actor(dto.Actor),
		Version:    dto.Version,
		OccurredAt: dto.OccurredAt.UTC(),
	}, nil
}
