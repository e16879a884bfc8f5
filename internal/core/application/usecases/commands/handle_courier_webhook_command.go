package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/guard"
)

var ErrHandleCourierWebhookCommandIsNotConstructed = errors.New(
	"HandleCourierWebhookCommand must be created via NewHandleCourierWebhookCommand constructor",
)

// HandleCourierWebhookCommand carries one inbound courier callback exactly
// as received: the body must be the raw bytes the signature was computed
// over.
type HandleCourierWebhookCommand struct { //nolint:recvcheck //using for validation
	platform  webhook.Platform
	body      []byte
	signature string
	timestamp string

	guard guard.ConstructorGuard
}

func NewHandleCourierWebhookCommand(
	platform string,
	body []byte,
	signature, timestamp string,
) (HandleCourierWebhookCommand, error) {
	p, err := webhook.ParsePlatform(platform)
	if err != nil {
		return HandleCourierWebhookCommand{}, err
	}

	return HandleCourierWebhookCommand{
		platform:  p,
		body:      body,
		signature: signature,
		timestamp: timestamp,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c HandleCourierWebhookCommand) Validate() error {
	return c.guard.Validate(ErrHandleCourierWebhookCommandIsNotConstructed)
}

func (c HandleCourierWebhookCommand) Platform() webhook.Platform {
	return c.platform
}

func (c HandleCourierWebhookCommand) Body() []byte {
	return c.body
}

func (c HandleCourierWebhookCommand) Signature() string {
	return c.signature
}

func (c HandleCourierWebhookCommand) Timestamp() string {
	return c.timestamp
}
