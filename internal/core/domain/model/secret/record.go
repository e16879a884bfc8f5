// Package secret describes encrypted per-platform shared secrets as they are
// stored. Plaintext never appears in this package.
package secret

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/webhook"
	"fulfillment/internal/pkg/errs"
)

// AlgorithmXChaCha20Poly1305 is the algorithm tag of records sealed with
// golang.org/x/crypto/chacha20poly1305.NewX.
const AlgorithmXChaCha20Poly1305 = "xchacha20poly1305"

// ErrNoSecret is returned when a platform has no stored record at all.
var ErrNoSecret = errors.New("no secret stored for platform")

// Record is one encrypted secret of a platform under one master key version.
// (Platform, KeyVersion) is unique and at most one record per platform is
// current.
type Record struct {
	Platform   webhook.Platform
	KeyVersion int
	Ciphertext []byte
	Nonce      []byte
	Algorithm  string
	Current    bool
	CreatedAt  time.Time
}

// Validate checks the record is complete enough to attempt decryption.
func (r Record) Validate() error {
	var errList []error
	if r.Platform == "" {
		errList = append(errList, errs.NewValueIsRequiredError("platform"))
	}
	if r.KeyVersion <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("key version", fmt.Errorf("%d is not positive", r.KeyVersion)))
	}
	if len(r.Ciphertext) == 0 || len(r.Nonce) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("ciphertext and nonce"))
	}
	if r.Algorithm != AlgorithmXChaCha20Poly1305 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("algorithm", fmt.Errorf("%q is not supported", r.Algorithm)))
	}
	return errors.Join(errList...)
}

// AssociatedData binds a ciphertext to its platform and key version so a
// record copied under another name fails to open.
func AssociatedData(platform webhook.Platform, keyVersion int) []byte {
	return fmt.Appendf(nil, "%s:%d", platform, keyVersion)
}
