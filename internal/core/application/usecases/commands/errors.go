package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
)

var (
	// ErrDispatchInProgress means another dispatch of the same order holds
	// the dispatch lock.
	ErrDispatchInProgress = errors.New("dispatch in progress")
	// ErrDispatchExhausted means every attempt failed, or the platform
	// refused the request. The order carries the dispatchFailed flag.
	ErrDispatchExhausted = errors.New("dispatch exhausted")
)

// DispatchExhaustedError reports a dispatch that ended without a tracking
// id. It matches ErrDispatchExhausted and, through Cause, the ports
// sentinel of the last attempt (e.g. ports.ErrDispatchTimeout).
type DispatchExhaustedError struct {
	OrderID  kernel.UUID
	Attempts int
	Cause    error
}

func NewDispatchExhaustedError(orderID kernel.UUID, attempts int, cause error) *DispatchExhaustedError {
	return &DispatchExhaustedError{OrderID: orderID, Attempts: attempts, Cause: cause}
}

func (e *DispatchExhaustedError) Error() string {
	return fmt.Sprintf("%s: order %s after %d attempt(s): %v", ErrDispatchExhausted, e.OrderID, e.Attempts, e.Cause)
}

func (e *DispatchExhaustedError) Unwrap() []error {
	return []error{ErrDispatchExhausted, e.Cause}
}
