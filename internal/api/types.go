// Package api defines the public request and response envelopes for the
// MCP-style JSON-RPC endpoint. These types are shared between the HTTP
// handlers and the tool pipelines.
package api

import (
	"encoding/json"
	"strings"
)

// MCPRequest is the envelope posted to /mcp.
//
// Methods: "initialize", "tools/list", "tools/call".
type MCPRequest struct {
	ID     int       `json:"id"`
	Method string    `json:"method"`
	Params MCPParams `json:"params"`
}

// MCPParams carries the tool invocation parameters for "tools/call".
// Arguments is intentionally loose: callers send either a free-text string
// or an arbitrary JSON mapping, and the argument standardizer coerces it.
type MCPParams struct {
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ArgumentsText returns the raw arguments as plain text for the standardizer.
// A JSON string is unquoted; any other JSON value is passed through verbatim.
func (p MCPParams) ArgumentsText() string {
	raw := strings.TrimSpace(string(p.Arguments))
	if raw == "" || raw == "null" {
		return ""
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(p.Arguments, &s); err == nil {
			return s
		}
	}
	return raw
}

// MCPResponse is the envelope returned for every request, success or failure.
// Result is always a human-readable value; Error is null unless the pipeline
// itself failed; Debug carries the per-stage diagnostic trace when a tool ran.
type MCPResponse struct {
	ID     int     `json:"id"`
	Result any     `json:"result"`
	Error  *string `json:"error"`
	Debug  any     `json:"debug,omitempty"`
}

// ErrorString is a convenience for building the nullable Error field.
func ErrorString(msg string) *string {
	if msg == "" {
		return nil
	}
	return &msg
}
