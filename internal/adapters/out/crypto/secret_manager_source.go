package crypto

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SecretManagerClient is the part of the Secret Manager client the loader
// needs; *secretmanager.Client satisfies it.
type SecretManagerClient interface {
	AccessSecretVersion(
		ctx context.Context,
		req *secretmanagerpb.AccessSecretVersionRequest,
		opts ...gax.CallOption,
	) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// LoadKeyringFromSecretManager reads one Secret Manager version per master
// key version of the secret resource "projects/<p>/secrets/<name>". Master
// key version N is secret version N. A payload is either 32 raw bytes or
// their base64 encoding.
func LoadKeyringFromSecretManager(
	ctx context.Context,
	client SecretManagerClient,
	resource string,
	versions []int,
	current int,
) (*Keyring, error) {
	resource = strings.TrimSuffix(strings.TrimSpace(resource), "/")
	if resource == "" {
		return nil, errs.NewValueIsRequiredError("master key secret")
	}
	if len(versions) == 0 {
		return nil, errs.NewValueIsRequiredError("master key versions")
	}

	keys := make(map[int][]byte, len(versions))
	for _, version := range versions {
		name := fmt.Sprintf("%s/versions/%d", resource, version)
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, errs.NewObjectNotFoundErrorWithCause("master key", name, err)
			}
			return nil, fmt.Errorf("access %s: %w", name, err)
		}

		key, err := payloadKey(resp.GetPayload().GetData())
		if err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause(name, err)
		}
		keys[version] = key
	}

	if current == 0 {
		for v := range keys {
			current = max(current, v)
		}
	}
	return NewKeyring(keys, current)
}

func payloadKey(data []byte) ([]byte, error) {
	if len(data) == chacha20poly1305.KeySize {
		return data, nil
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
}
