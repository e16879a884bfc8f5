package order

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// Event is an input to the order state machine.
type Event int

const (
	UnknownEvent Event = iota
	BranchAssigned
	BranchUnassigned
	PreparationStarted
	PaymentConfirmed
	DispatchSucceeded
	DispatchFailed
	CourierPickedUp
	CourierDelivered
	CourierCancelled
	AdminCancelled
)

var eventNames = map[Event]string{
	UnknownEvent:       "Unknown",
	BranchAssigned:     "BranchAssigned",
	BranchUnassigned:   "BranchUnassigned",
	PreparationStarted: "PreparationStarted",
	PaymentConfirmed:   "PaymentConfirmed",
	DispatchSucceeded:  "DispatchSucceeded",
	DispatchFailed:     "DispatchFailed",
	CourierPickedUp:    "CourierPickedUp",
	CourierDelivered:   "CourierDelivered",
	CourierCancelled:   "CourierCancelled",
	AdminCancelled:     "AdminCancelled",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "Unknown"
}

// Actor identifies who triggered a transition; it ends up in the audit trail.
type Actor string

const (
	ActorWebhook Actor = "webhook"
	ActorAdmin   Actor = "admin"
	ActorGateway Actor = "gateway"
	ActorSystem  Actor = "system"
)

// EventData carries the fields an event writes onto the order.
// Only the fields relevant to the event are read.
type EventData struct {
	// BranchID is required by BranchAssigned.
	BranchID *kernel.UUID
	// TrackingID is required by DispatchSucceeded.
	TrackingID string
	// CourierStatus is the raw external status that produced a courier event.
	CourierStatus string
	// DispatchAttempts is added to the order's attempt counter by
	// DispatchSucceeded and DispatchFailed.
	DispatchAttempts int
}

// AuditRecord is appended for every applied (non no-op) transition.
type AuditRecord struct {
	ID         string
	OrderID    kernel.UUID
	From       Status
	To         Status
	Event      Event
	Actor      Actor
	Version    int64
	OccurredAt time.Time
}
