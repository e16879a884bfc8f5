// Package crypto seals platform secrets with XChaCha20-Poly1305 under
// versioned master keys. Master keys come from the environment or from Google
// Secret Manager and never leave this package.
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"fulfillment/internal/core/domain/model/secret"
	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/errs"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrUnknownKeyVersion is returned by Open for a record sealed under a
	// master key the keyring does not hold.
	ErrUnknownKeyVersion = errors.New("unknown master key version")
	// ErrDecryptionFailed means authentication failed: wrong key, tampered
	// ciphertext or a record moved to another platform.
	ErrDecryptionFailed = errors.New("secret decryption failed")
)

// Keyring holds every master key still needed for decryption and seals new
// records under the current one.
type Keyring struct {
	keys    map[int][]byte
	current int
}

// NewKeyring validates key sizes and that current is one of the versions.
func NewKeyring(keys map[int][]byte, current int) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errs.NewValueIsRequiredError("master keys")
	}

	copied := make(map[int][]byte, len(keys))
	for version, key := range keys {
		if version <= 0 {
			return nil, errs.NewValueIsInvalidErrorWithCause("master key version", fmt.Errorf("%d is not positive", version))
		}
		if len(key) != chacha20poly1305.KeySize {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"master key",
				fmt.Errorf("version %d has %d bytes, want %d", version, len(key), chacha20poly1305.KeySize),
			)
		}
		copied[version] = slices.Clone(key)
	}
	if _, ok := copied[current]; !ok {
		return nil, errs.NewValueIsInvalidErrorWithCause("current master key", fmt.Errorf("version %d is not loaded", current))
	}

	return &Keyring{keys: copied, current: current}, nil
}

func (k *Keyring) CurrentVersion() int {
	return k.current
}

// Versions lists the loaded key versions in ascending order.
func (k *Keyring) Versions() []int {
	return slices.Sorted(maps.Keys(k.keys))
}

// Seal encrypts plaintext for platform under the current master key. The
// returned record is not yet marked current.
func (k *Keyring) Seal(platform webhook.Platform, plaintext []byte, now time.Time) (secret.Record, error) {
	if platform == "" {
		return secret.Record{}, errs.NewValueIsRequiredError("platform")
	}
	if len(plaintext) == 0 {
		return secret.Record{}, errs.NewValueIsRequiredError("secret")
	}

	aead, err := chacha20poly1305.NewX(k.keys[k.current])
	if err != nil {
		return secret.Record{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return secret.Record{}, fmt.Errorf("generate nonce: %w", err)
	}

	return secret.Record{
		Platform:   platform,
		KeyVersion: k.current,
		Ciphertext: aead.Seal(nil, nonce, plaintext, secret.AssociatedData(platform, k.current)),
		Nonce:      nonce,
		Algorithm:  secret.AlgorithmXChaCha20Poly1305,
		CreatedAt:  now.UTC(),
	}, nil
}

// Open decrypts a record using the master key of its version.
func (k *Keyring) Open(record secret.Record) ([]byte, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	key, ok := k.keys[record.KeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyVersion, record.KeyVersion)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(record.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce has %d bytes", ErrDecryptionFailed, len(record.Nonce))
	}

	plaintext, err := aead.Open(nil, record.Nonce, record.Ciphertext, secret.AssociatedData(record.Platform, record.KeyVersion))
	if err != nil {
		return nil, fmt.Errorf("%w: %s key version %d", ErrDecryptionFailed, record.Platform, record.KeyVersion)
	}
	return plaintext, nil
}
