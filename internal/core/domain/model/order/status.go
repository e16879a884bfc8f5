package order

import (
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// Status is the canonical lifecycle state of an order.
//
//	Created ──> Preparing ──> DispatchedToCourier ──> InTransit ──> Delivered
//	   │ ▲          │ ▲                 │                            ▲
//	   ▼ │          └─┘ DispatchFailed  └────────────────────────────┘
//	BranchPending
//
// Every non-terminal state may move to Cancelled. Delivered and Cancelled
// are terminal.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Created
	// BranchPending means no branch services the delivery zone; the order
	// waits for a human to fix branch coverage and retry assignment.
	BranchPending
	Preparing
	DispatchedToCourier
	InTransit
	Delivered
	Cancelled
)

var statusNames = map[Status]string{
	Unknown:             "Unknown",
	Created:             "Created",
	BranchPending:       "BranchPending",
	Preparing:           "Preparing",
	DispatchedToCourier: "DispatchedToCourier",
	InTransit:           "InTransit",
	Delivered:           "Delivered",
	Cancelled:           "Cancelled",
}

// String implements fmt.Stringer. Out-of-range values print as "Unknown".
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Validate rejects Unknown and out-of-range values, e.g. corrupted rows.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsTerminal reports whether the order is closed for good.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if s != Unknown && strings.EqualFold(n, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", name))
}
