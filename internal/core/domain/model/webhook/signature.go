package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance bounds how far a signed timestamp may drift from now.
const DefaultTolerance = 5 * time.Minute

var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrReplayDetected   = errors.New("replay detected")
)

// ParseTimestamp reads the unix-seconds timestamp header.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp missing", ErrReplayDetected)
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not unix seconds", ErrReplayDetected, value)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

// CheckFreshness rejects timestamps further than tolerance from now in
// either direction.
func CheckFreshness(ts, now time.Time, tolerance time.Duration) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if skew := now.Sub(ts); skew > tolerance || skew < -tolerance {
		return fmt.Errorf("%w: timestamp skew %s exceeds %s", ErrReplayDetected, skew.Truncate(time.Second), tolerance)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of timestamp + "." + body.
func Sign(secret []byte, timestamp string, body []byte) string {
	return hex.EncodeToString(computeHMAC(secret, timestamp, body))
}

// VerifySignature checks a hex or base64 encoded signature header against
// the canonical string. The comparison is constant-time.
func VerifySignature(secret []byte, timestamp string, body []byte, header string) error {
	if len(secret) == 0 {
		return fmt.Errorf("%w: signing secret is empty", ErrSignatureInvalid)
	}
	given, err := decodeSignature(strings.TrimSpace(header))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	if !hmac.Equal(given, computeHMAC(secret, strings.TrimSpace(timestamp), body)) {
		return ErrSignatureInvalid
	}
	return nil
}

func computeHMAC(secret []byte, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// decodeSignature accepts hex first since a hex digest is also valid base64.
// An optional "sha256=" prefix is stripped.
func decodeSignature(value string) ([]byte, error) {
	value = strings.TrimPrefix(value, "sha256=")
	if value == "" {
		return nil, errors.New("empty signature")
	}
	if decoded, err := hex.DecodeString(value); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(value); err == nil {
		return decoded, nil
	}
	return nil, errors.New("signature must be hex or base64 encoded")
}
