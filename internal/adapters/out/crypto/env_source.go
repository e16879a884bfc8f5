package crypto

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fulfillment/internal/pkg/errs"
)

// ParseKeyring builds a keyring from the MASTER_KEYS format
// "1:<base64>,2:<base64>". An empty current selects the highest version.
func ParseKeyring(masterKeys, current string) (*Keyring, error) {
	masterKeys = strings.TrimSpace(masterKeys)
	if masterKeys == "" {
		return nil, errs.NewValueIsRequiredError("MASTER_KEYS")
	}

	keys := make(map[int][]byte)
	for _, entry := range strings.Split(masterKeys, ",") {
		versionText, encoded, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return nil, errs.NewValueIsInvalidErrorWithCause("MASTER_KEYS", fmt.Errorf("entry %q is not version:key", redact(entry)))
		}

		version, err := strconv.Atoi(strings.TrimSpace(versionText))
		if err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("MASTER_KEYS", fmt.Errorf("version %q: %w", versionText, err))
		}
		if _, dup := keys[version]; dup {
			return nil, errs.NewValueIsInvalidErrorWithCause("MASTER_KEYS", fmt.Errorf("version %d listed twice", version))
		}

		key, err := decodeKey(strings.TrimSpace(encoded))
		if err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("MASTER_KEYS", fmt.Errorf("version %d: %w", version, err))
		}
		keys[version] = key
	}

	currentVersion, err := pickCurrent(keys, current)
	if err != nil {
		return nil, err
	}
	return NewKeyring(keys, currentVersion)
}

func pickCurrent(keys map[int][]byte, current string) (int, error) {
	current = strings.TrimSpace(current)
	if current == "" {
		versions := make([]int, 0, len(keys))
		for v := range keys {
			versions = append(versions, v)
		}
		return slices.Max(versions), nil
	}

	v, err := strconv.Atoi(current)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("MASTER_KEY_CURRENT", err)
	}
	return v, nil
}

func decodeKey(encoded string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(encoded); err == nil {
		return key, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
}

// redact keeps key material out of error messages.
func redact(entry string) string {
	if version, _, ok := strings.Cut(entry, ":"); ok {
		return version + ":***"
	}
	if len(entry) > 4 {
		return entry[:4] + "***"
	}
	return "***"
}
