// Package api embeds the OpenAPI document served at /openapi.yaml and used
// to validate admin requests.
package api

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
