package tools

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/simple-event-calendar/server/internal/domain/apperr"
)

// decodeArgs copies the raw tool arguments into dst.
func decodeArgs(request mcp.CallToolRequest, dst any) error {
	if request.Params.Arguments == nil {
		return nil
	}
	data, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// toolResultJSON converts a payload to an MCP tool result with JSON content.
func toolResultJSON(payload any) (*mcp.CallToolResult, error) {
	resultJSON, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to build response", err), nil
	}
	return resultJSON, nil
}

// toolError reports a domain failure to the client without leaking storage details.
func toolError(action string, err error) *mcp.CallToolResult {
	if apperr.KindOf(err) == apperr.KindStorage {
		return mcp.NewToolResultError(action + ": internal server error")
	}
	return mcp.NewToolResultError(action + ": " + apperr.Message(err, err.Error()))
}
