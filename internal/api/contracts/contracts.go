// Package contracts embeds the OpenAPI description of the HTTP API.
package contracts

import (
	_ "embed"
	"sync"

	"sigs.k8s.io/yaml"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	openAPIJSON    []byte
	openAPIJSONErr error
	openAPIOnce    sync.Once
)

func OpenAPIYAML() []byte {
	return openAPIYAML
}

// OpenAPIJSON converts the document once and caches the result.
func OpenAPIJSON() ([]byte, error) {
	openAPIOnce.Do(func() {
		openAPIJSON, openAPIJSONErr = yaml.YAMLToJSON(openAPIYAML)
	})
	return openAPIJSON, openAPIJSONErr
}
