package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
)

// SecretRepository stores encrypted platform secrets. Plaintext never
// crosses this interface.
type SecretRepository interface {
	// ListByPlatform returns a platform's records, current first and then by
	// descending key version.
	ListByPlatform(ctx context.Context, platform webhook.Platform) ([]secret.Record, error)

	// ListCurrent returns the current record of every platform.
	ListCurrent(ctx context.Context) ([]secret.Record, error)

	// SaveCurrent stores record as the platform's current secret, clearing
	// the current flag of its other records. An existing row with the same
	// (platform, key version) is replaced.
	SaveCurrent(ctx context.Context, record secret.Record) error

	// DeleteKeyVersion removes every record sealed under keyVersion.
	DeleteKeyVersion(ctx context.Context, keyVersion int) (int64, error)
}
