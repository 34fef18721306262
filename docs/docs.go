// Package docs embeds the OpenAPI description of the dashboard server.
package docs

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document served at /swagger/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
