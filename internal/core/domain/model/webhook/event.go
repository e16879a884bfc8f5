package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// Outcome records what processing an event led to.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeUnknownStatus     Outcome = "unknown_status"
	OutcomeInvalidTransition Outcome = "invalid_transition"
	OutcomeOrderNotFound     Outcome = "order_not_found"
	// OutcomeDeferred marks an event that lost the version race twice. The
	// reconciliation job picks these up.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeIgnored covers Unrecognized payloads and no-op terminal
	// re-deliveries.
	OutcomeIgnored Outcome = "ignored"
)

// Event is the persisted record of one inbound status update. Only the
// outcome fields change after insert.
type Event struct {
	DedupeKey         string
	Platform          Platform
	OrderID           kernel.UUID
	ExternalEventID   string
	ExternalStatus    string
	ExternalTimestamp time.Time
	ReceivedAt        time.Time
	SignatureValid    bool
	AppliedAt         *time.Time
	Outcome           Outcome
	ReconcileAttempts int
}

// NewEvent builds the row for a StatusUpdate received at now.
func NewEvent(platform Platform, update StatusUpdate, now time.Time) Event {
	return Event{
		DedupeKey:         DedupeKey(platform, update),
		Platform:          platform,
		OrderID:           update.OrderID,
		ExternalEventID:   update.EventID,
		ExternalStatus:    update.Status,
		ExternalTimestamp: update.Timestamp,
		ReceivedAt:        now.UTC(),
		SignatureValid:    true,
	}
}

// DedupeKey derives the idempotency key of an update. The platform's event id
// is used when present, otherwise a SHA-256 over order id, status and
// timestamp.
func DedupeKey(platform Platform, update StatusUpdate) string {
	if update.EventID != "" {
		return string(platform) + ":evt:" + update.EventID
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		update.OrderID.String(),
		strings.ToUpper(update.Status),
		update.Timestamp.UTC().Format(time.RFC3339Nano),
	}, "|")))
	return string(platform) + ":sha256:" + hex.EncodeToString(sum[:])
}

// MarkApplied records a successful transition.
func (e *Event) MarkApplied(now time.Time) {
	at := now.UTC()
	e.AppliedAt = &at
	e.Outcome = OutcomeApplied
}

// MarkOutcome records a non-applying outcome.
func (e *Event) MarkOutcome(outcome Outcome) {
	e.AppliedAt = nil
	e.Outcome = outcome
}
