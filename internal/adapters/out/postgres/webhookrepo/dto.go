// Package webhookrepo stores inbound courier webhook events. The dedupe key
// is the primary key, which makes insert-if-absent a single statement.
package webhookrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/webhook"

	"github.com/google/uuid"
)

type EventDTO struct {
	DedupeKey         string    `gorm:"primaryKey"`
	Platform          string    `gorm:"not null"`
	OrderID           uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalEventID   string
	ExternalStatus    string    `gorm:"not null"`
	ExternalTimestamp time.Time `gorm:"not null"`
	ReceivedAt        time.Time `gorm:"not null;index"`
	SignatureValid    bool      `gorm:"not null"`
	AppliedAt         *time.Time
	Outcome           string `gorm:"not null;default:'';index"`
	ReconcileAttempts int    `gorm:"not null;default:0"`
}

func (EventDTO) TableName() string {
	return "courier_webhook_events"
}

func fromDomain(e webhook.Event) EventDTO {
	return EventDTO{
		DedupeKey:         e.DedupeKey,
		Platform:          string(e.Platform),
		OrderID:           e.OrderID.Bytes(),
		ExternalEventID:   e.ExternalEventID,
		ExternalStatus:    e.ExternalStatus,
		ExternalTimestamp: e.ExternalTimestamp,
		ReceivedAt:        e.ReceivedAt,
		SignatureValid:    e.SignatureValid,
		AppliedAt:         e.AppliedAt,
		Outcome:           string(e.Outcome),
		ReconcileAttempts: e.ReconcileAttempts,
	}
}

func toDomain(dto EventDTO) (webhook.Event, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return webhook.Event{}, err
	}

	var appliedAt *time.Time
	if dto.AppliedAt != nil {
		at := dto.AppliedAt.UTC()
		appliedAt = &at
	}

	return webhook.Event{
		DedupeKey:         dto.DedupeKey,
		Platform:          webhook.Platform(dto.Platform),
		OrderID:           orderID,
		ExternalEventID:   dto.ExternalEventID,
		ExternalStatus:    dto.ExternalStatus,
		ExternalTimestamp: dto.ExternalTimestamp.UTC(),
		ReceivedAt:        dto.ReceivedAt.UTC(),
		SignatureValid:    dto.SignatureValid,
		AppliedAt:         appliedAt,
		Outcome:           webhook.Outcome(dto.Outcome),
		ReconcileAttempts: dto.ReconcileAttempts,
	}, nil
}
