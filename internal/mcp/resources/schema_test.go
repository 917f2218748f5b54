package resources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readText(t *testing.T, contents []mcp.ResourceContents) mcp.TextResourceContents {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "expected text contents, got %T", contents[0])
	return text
}

func TestResourceDefinitions(t *testing.T) {
	r := NewSchemaResources()

	openAPI := r.OpenAPIResource()
	assert.Equal(t, openAPIResource, openAPI.URI)
	assert.Equal(t, "OpenAPI Schema", openAPI.Name)
	assert.Equal(t, schemaMIMEType, openAPI.MIMEType)

	info := r.InfoResource()
	assert.Equal(t, serverInfoResource, info.URI)
	assert.Equal(t, schemaMIMEType, info.MIMEType)
}

func TestOpenAPIReadHandler(t *testing.T) {
	r := NewSchemaResources()

	contents, err := r.OpenAPIReadHandler()(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	text := readText(t, contents)
	assert.Equal(t, openAPIResource, text.URI)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	assert.Contains(t, doc, "paths")
}

func TestOpenAPIReadHandlerError(t *testing.T) {
	r := &SchemaResources{openAPI: func() ([]byte, error) { return nil, errors.New("broken") }}

	_, err := r.OpenAPIReadHandler()(context.Background(), mcp.ReadResourceRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load openapi")
}

func TestInfoReadHandlerEchoesURI(t *testing.T) {
	r := NewSchemaResources()
	info := ServerInfo{Name: "calendar", Version: "1.2.3", Capabilities: ServerCapabilities{Tools: true}}

	var req mcp.ReadResourceRequest
	req.Params.URI = "info://server?fresh=1"
	contents, err := r.InfoReadHandler(info)(context.Background(), req)
	require.NoError(t, err)
	text := readText(t, contents)
	assert.Equal(t, "info://server?fresh=1", text.URI)

	var decoded ServerInfo
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	assert.Equal(t, info, decoded)
}
