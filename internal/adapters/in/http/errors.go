package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/coupon"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Reasons reported in webhook acknowledgements and admin errors.
const (
	reasonSignatureInvalid   = "signature_invalid"
	reasonReplayDetected     = "replay_detected"
	reasonMalformed          = "malformed_payload"
	reasonUnavailable        = "temporarily_unavailable"
	reasonInvalidTransition  = "invalid_transition"
	reasonVersionConflict    = "version_conflict"
	reasonPreconditionFailed = "precondition_failed"
	reasonDispatchInProgress = "dispatch_in_progress"
	reasonDispatchExhausted  = "dispatch_exhausted"
)

// statusFor maps a use case error to an HTTP status and a machine readable
// reason.
func statusFor(err error) (int, string) {
	if reason, ok := coupon.RejectionReason(err); ok {
		return http.StatusUnprocessableEntity, string(reason)
	}

	switch {
	case errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusBadRequest, ""
	case errors.Is(err, errs.ErrObjectNotFound), errors.Is(err, secret.ErrNoSecret):
		return http.StatusNotFound, ""
	case errors.Is(err, errs.ErrConcurrencyConflict):
		return http.StatusConflict, reasonVersionConflict
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, reasonInvalidTransition
	case errors.Is(err, commands.ErrDispatchInProgress):
		return http.StatusConflict, reasonDispatchInProgress
	case errors.Is(err, errs.ErrPreconditionFailed):
		return http.StatusConflict, reasonPreconditionFailed
	case errors.Is(err, commands.ErrDispatchExhausted):
		return http.StatusBadGateway, reasonDispatchExhausted
	default:
		return http.StatusInternalServerError, ""
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	code, reason := statusFor(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusBadGateway {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		msg = http.StatusText(code)
	}
	return c.JSON(code, Error{Code: code, Message: msg, Reason: reason})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: msg})
}

// webhookStatusFor maps a webhook ingestion error to the status the courier
// platform sees. Platforms retry on 5xx only.
func webhookStatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, webhook.ErrSignatureInvalid):
		return http.StatusUnauthorized, reasonSignatureInvalid
	case errors.Is(err, webhook.ErrReplayDetected):
		return http.StatusConflict, reasonReplayDetected
	case errors.Is(err, errs.ErrValueIsRequired), errors.Is(err, errs.ErrValueIsInvalid):
		return http.StatusBadRequest, reasonMalformed
	default:
		return http.StatusInternalServerError, reasonUnavailable
	}
}
