// Package secrets implements the vault that stores per-platform webhook
// signing secrets encrypted at rest and hands out their plaintext to the
// webhook handler.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"golang.org/x/sync/singleflight"
)

// ErrUndecryptable is returned when a platform has records but none of them
// opens with the loaded master keys.
var ErrUndecryptable = errors.New("no secret record could be decrypted")

// DefaultCacheTTL bounds how long a decrypted secret is served from memory.
const DefaultCacheTTL = time.Minute

// Cipher seals and opens secret records. crypto.Keyring implements it.
type Cipher interface {
	CurrentVersion() int
	Seal(platform webhook.Platform, plaintext []byte, now time.Time) (secret.Record, error)
	Open(record secret.Record) ([]byte, error)
}

type UoW interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	SecretRepository() ports.SecretRepository
}

type UoWFactory interface {
	Create() UoW
}

// RotationResult counts platforms re-encrypted under the current master key.
type RotationResult struct {
	Rotated    int
	UpToDate   int
	KeyVersion int
}

// Vault implements ports.SecretProvider.
type Vault struct {
	uowFactory UoWFactory
	cipher     Cipher
	cacheTTL   time.Duration
	now        func() time.Time
	logger     *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	cache map[webhook.Platform]cachedSecret
}

type cachedSecret struct {
	plaintext []byte
	expires   time.Time
}

var _ ports.SecretProvider = (*Vault)(nil)

// NewVault builds a vault. cacheTTL 0 disables the in-memory cache; now nil
// means time.Now.
func NewVault(uowFactory UoWFactory, cipher Cipher, cacheTTL time.Duration, now func() time.Time, logger *slog.Logger) *Vault {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{
		uowFactory: uowFactory,
		cipher:     cipher,
		cacheTTL:   cacheTTL,
		now:        now,
		logger:     logger.With("component", "secret_vault"),
		cache:      make(map[webhook.Platform]cachedSecret),
	}
}

// Store encrypts plaintext under the current master key and makes it the
// platform's current secret.
func (v *Vault) Store(ctx context.Context, platform webhook.Platform, plaintext []byte) (secret.Record, error) {
	record, err := v.cipher.Seal(platform, plaintext, v.now())
	if err != nil {
		return secret.Record{}, err
	}

	uow := v.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return secret.Record{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.SecretRepository().SaveCurrent(ctx, record); err != nil {
		return secret.Record{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return secret.Record{}, err
	}

	v.forget(platform)
	record.Current = true
	v.logger.InfoContext(ctx, "platform secret stored", "platform", platform, "key_version", record.KeyVersion)
	return record, nil
}

// Decrypt returns a platform's plaintext. keyVersion 0 starts at the current
// record and falls back to older ones; a positive keyVersion opens only that
// record.
func (v *Vault) Decrypt(ctx context.Context, platform webhook.Platform, keyVersion int) ([]byte, error) {
	records, err := v.uowFactory.Create().SecretRepository().ListByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}
	return v.open(platform, records, keyVersion)
}

// SigningSecret serves the webhook handler. Concurrent misses for one
// platform share a single storage read.
func (v *Vault) SigningSecret(ctx context.Context, platform webhook.Platform) ([]byte, error) {
	if plaintext, ok := v.cached(platform); ok {
		return plaintext, nil
	}

	result, err, _ := v.group.Do(string(platform), func() (any, error) {
		plaintext, err := v.Decrypt(ctx, platform, 0)
		if err != nil {
			return nil, err
		}
		v.remember(platform, plaintext)
		return plaintext, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Rotate re-encrypts every platform whose current record predates the
// current master key. Prior records stay until PurgeKeyVersion.
func (v *Vault) Rotate(ctx context.Context) (RotationResult, error) {
	result := RotationResult{KeyVersion: v.cipher.CurrentVersion()}

	uow := v.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return result, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()
	repo := uow.SecretRepository()

	current, err := repo.ListCurrent(ctx)
	if err != nil {
		return result, err
	}

	rotated := make([]webhook.Platform, 0, len(current))
	for _, rec := range current {
		if rec.KeyVersion == result.KeyVersion {
			result.UpToDate++
			continue
		}

		records, err := repo.ListByPlatform(ctx, rec.Platform)
		if err != nil {
			return result, err
		}
		plaintext, err := v.open(rec.Platform, records, 0)
		if err != nil {
			return result, fmt.Errorf("rotate %s: %w", rec.Platform, err)
		}

		sealed, err := v.cipher.Seal(rec.Platform, plaintext, v.now())
		if err != nil {
			return result, err
		}
		if err := repo.SaveCurrent(ctx, sealed); err != nil {
			return result, err
		}
		rotated = append(rotated, rec.Platform)
	}

	if err := uow.Commit(ctx); err != nil {
		return result, err
	}

	result.Rotated = len(rotated)
	for _, p := range rotated {
		v.forget(p)
	}
	v.logger.InfoContext(ctx, "platform secrets rotated",
		"key_version", result.KeyVersion, "rotated", result.Rotated, "up_to_date", result.UpToDate)
	return result, nil
}

// PurgeKeyVersion deletes every record sealed under keyVersion, but only
// once every platform's current record uses a newer version.
func (v *Vault) PurgeKeyVersion(ctx context.Context, keyVersion int) (int64, error) {
	if keyVersion <= 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("key version", fmt.Errorf("%d is not positive", keyVersion))
	}
	if keyVersion >= v.cipher.CurrentVersion() {
		return 0, errs.NewPreconditionFailedError("purge key version",
			fmt.Sprintf("version %d is not older than current version %d", keyVersion, v.cipher.CurrentVersion()))
	}

	uow := v.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()
	repo := uow.SecretRepository()

	current, err := repo.ListCurrent(ctx)
	if err != nil {
		return 0, err
	}
	for _, rec := range current {
		if rec.KeyVersion <= keyVersion {
			return 0, errs.NewPreconditionFailedError("purge key version",
				fmt.Sprintf("platform %s is still current under version %d", rec.Platform, rec.KeyVersion))
		}
	}

	deleted, err := repo.DeleteKeyVersion(ctx, keyVersion)
	if err != nil {
		return 0, err
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}

	v.logger.InfoContext(ctx, "master key version purged", "key_version", keyVersion, "records", deleted)
	return deleted, nil
}

func (v *Vault) open(platform webhook.Platform, records []secret.Record, keyVersion int) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", secret.ErrNoSecret, platform)
	}

	var lastErr error
	for _, rec := range records {
		if keyVersion > 0 && rec.KeyVersion != keyVersion {
			continue
		}
		plaintext, err := v.cipher.Open(rec)
		if err == nil {
			if !rec.Current {
				v.logger.Warn("platform secret opened from non-current record",
					"platform", platform, "key_version", rec.KeyVersion)
			}
			return plaintext, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		return nil, errs.NewObjectNotFoundError("secret record", fmt.Sprintf("%s:%d", platform, keyVersion))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUndecryptable, platform, lastErr)
}

func (v *Vault) cached(platform webhook.Platform) ([]byte, bool) {
	if v.cacheTTL <= 0 {
		return nil, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.cache[platform]
	if !ok || !v.now().Before(entry.expires) {
		return nil, false
	}
	return entry.plaintext, true
}

func (v *Vault) remember(platform webhook.Platform, plaintext []byte) {
	if v.cacheTTL <= 0 {
		return
	}
	v.mu.Lock()
	v.cache[platform] = cachedSecret{plaintext: plaintext, expires: v.now().Add(v.cacheTTL)}
	v.mu.Unlock()
}

func (v *Vault) forget(platform webhook.Platform) {
	v.mu.Lock()
	delete(v.cache, platform)
	v.mu.Unlock()
	v.group.Forget(string(platform))
}
