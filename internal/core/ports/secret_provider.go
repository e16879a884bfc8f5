package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/webhook"
)

// SecretProvider resolves the plaintext webhook signing secret of a platform.
// A platform without any stored secret yields secret.ErrNoSecret.
type SecretProvider interface {
	SigningSecret(ctx context.Context, platform webhook.Platform) ([]byte, error)
}
