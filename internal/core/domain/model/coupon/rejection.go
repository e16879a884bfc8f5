package coupon

import (
	"errors"
	"fmt"
)

// ErrCouponRejected is the sentinel behind every RejectedError.
var ErrCouponRejected = errors.New("coupon rejected")

// Reason says why a coupon cannot be used.
type Reason string

const (
	ReasonNotFound     Reason = "NotFound"
	ReasonInactive     Reason = "Inactive"
	ReasonExpired      Reason = "Expired"
	ReasonBelowMinCart Reason = "BelowMinCart"
	ReasonLimitReached Reason = "LimitReached"
)

// RejectedError is a business outcome, not a failure: callers report it to
// the customer and carry on.
type RejectedError struct {
	Code   string
	Reason Reason
}

func NewRejectedError(code string, reason Reason) *RejectedError {
	return &RejectedError{Code: code, Reason: reason}
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCouponRejected, e.Code, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return ErrCouponRejected
}

// RejectionReason extracts the reason from err, if it is a rejection.
func RejectionReason(err error) (Reason, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}
