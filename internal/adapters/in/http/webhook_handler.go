package http

import (
	"io"
	"net/http"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/labstack/echo/v4"
)

const (
	SignatureHeader = "X-Courier-Signature"
	TimestampHeader = "X-Courier-Timestamp"

	// maxWebhookBody caps the bytes read from a callback body.
	maxWebhookBody = 1 << 20
)

// HandleCourierWebhook handles POST /webhooks/{platform}.
//
// The body is read raw, because the signature covers the exact bytes sent.
// Duplicates and events that could not be applied are still acknowledged
// with 200 so the platform stops retrying them.
func (s *Server) HandleCourierWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, WebhookAck{Reason: reasonMalformed})
	}
	if len(body) > maxWebhookBody {
		return c.JSON(http.StatusRequestEntityTooLarge, WebhookAck{Reason: reasonMalformed})
	}

	cmd, err := commands.NewHandleCourierWebhookCommand(
		c.Param("platform"),
		body,
		c.Request().Header.Get(SignatureHeader),
		c.Request().Header.Get(TimestampHeader),
	)
	if err != nil {
		return c.JSON(http.StatusNotFound, WebhookAck{Reason: "unknown_platform"})
	}

	result, err := s.handlers.CourierWebhook.Handle(c.Request().Context(), cmd)
	if err != nil {
		code, reason := webhookStatusFor(err)
		if code == http.StatusInternalServerError {
			s.logger.ErrorContext(c.Request().Context(), "webhook processing failed",
				"platform", cmd.Platform().String(), "error", err)
		}
		return c.JSON(code, WebhookAck{Reason: reason})
	}

	return c.JSON(http.StatusOK, WebhookAck{
		Accepted:  true,
		Duplicate: result.Duplicate,
		Outcome:   string(result.Outcome),
	})
}
