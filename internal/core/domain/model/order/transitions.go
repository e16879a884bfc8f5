package order

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTransition is the sentinel for state machine guard violations.
var ErrInvalidTransition = errors.New("invalid order transition")

// InvalidTransitionError reports an event that is not legal in the order's
// current state. The order is left untouched.
type InvalidTransitionError struct {
	From   Status
	Event  Event
	Reason string
}

func NewInvalidTransitionError(from Status, event Event, reason string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Event: event, Reason: reason}
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s on %s: %s", ErrInvalidTransition, e.Event, e.From, e.Reason)
	}
	return fmt.Sprintf("%s: %s on %s", ErrInvalidTransition, e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

type transitionKey struct {
	from  Status
	event Event
}

// Transition is one row of the legal-transition table.
type Transition struct {
	From  Status
	Event Event
	To    Status
}

var (
	transitionTable = buildTransitionTable()

	// terminalRedeliveries are events re-delivered after the order already
	// reached the state they lead to. They succeed without any effect.
	terminalRedeliveries = map[transitionKey]struct{}{
		{Delivered, CourierDelivered}: {},
		{Cancelled, CourierCancelled}: {},
		{Cancelled, AdminCancelled}:   {},
	}
)

func buildTransitionTable() map[transitionKey]Status {
	table := map[transitionKey]Status{
		{Created, BranchAssigned}:         Created,
		{Created, BranchUnassigned}:       BranchPending,
		{BranchPending, BranchAssigned}:   Created,
		{BranchPending, BranchUnassigned}: BranchPending,
		{Created, PreparationStarted}:     Preparing,

		{Created, PaymentConfirmed}:       Created,
		{BranchPending, PaymentConfirmed}: BranchPending,
		{Preparing, PaymentConfirmed}:     Preparing,

		{Preparing, DispatchSucceeded}: DispatchedToCourier,
		{Preparing, DispatchFailed}:    Preparing,

		{DispatchedToCourier, CourierPickedUp}:  InTransit,
		{DispatchedToCourier, CourierDelivered}: Delivered,
		{InTransit, CourierDelivered}:           Delivered,
	}

	for _, s := range []Status{Created, BranchPending, Preparing, DispatchedToCourier, InTransit} {
		table[transitionKey{s, CourierCancelled}] = Cancelled
		table[transitionKey{s, AdminCancelled}] = Cancelled
	}

	return table
}

// Next looks up the state an event leads to from the given state.
func Next(from Status, event Event) (Status, bool) {
	to, ok := transitionTable[transitionKey{from, event}]
	return to, ok
}

// IsTerminalRedelivery reports whether event is an idempotent re-delivery
// for an order already resting in the terminal state from.
func IsTerminalRedelivery(from Status, event Event) bool {
	_, ok := terminalRedeliveries[transitionKey{from, event}]
	return ok
}

// Transitions enumerates the full table in a stable order.
func Transitions() []Transition {
	out := make([]Transition, 0, len(transitionTable))
	for k, to := range transitionTable {
		out = append(out, Transition{From: k.from, Event: k.event, To: to})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].Event < out[j].Event
	})
	return out
}
