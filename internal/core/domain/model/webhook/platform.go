package webhook

import (
	"fmt"
	"regexp"
	"strings"

	"fulfillment/internal/pkg/errs"
)

var platformPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Platform names an external courier integration, e.g. "swiftcourier".
type Platform string

// ParsePlatform normalizes and validates a platform name taken from a URL
// path or a config file.
func ParsePlatform(s string) (Platform, error) {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "" {
		return "", errs.NewValueIsRequiredError("platform")
	}
	if !platformPattern.MatchString(p) {
		return "", errs.NewValueIsInvalidErrorWithCause("platform", fmt.Errorf("%q has unsupported characters", s))
	}
	return Platform(p), nil
}

func (p Platform) String() string {
	return string(p)
}
