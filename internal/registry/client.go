// Package registry fetches tool metadata from the MCP-Management service.
// The gateway serves its own locally registered definitions when the remote
// registry is unreachable, so this client is advisory, never load-bearing.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 5 * time.Second

// ToolInfo is one registry entry, as the management API serves it.
type ToolInfo struct {
	ToolKey       string `json:"tool_key"`
	ToolName      string `json:"tool_name"`
	Description   string `json:"description"`
	MCPServerName string `json:"mcp_server_name"`
}

// Client talks to the MCP-Management API and filters entries down to the
// ones registered for this server.
type Client struct {
	baseURL    string
	serverName string
	httpClient *http.Client
}

func NewClient(baseURL, serverName string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serverName: serverName,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// FetchTools returns this server's tools from the remote registry. The
// response body is either a bare list or wrapped as {"tools": [...]};
// both shapes occur in the wild.
func (c *Client) FetchTools(ctx context.Context) ([]ToolInfo, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("no registry URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tools", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var list []ToolInfo
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Tools []ToolInfo `json:"tools"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, fmt.Errorf("unexpected registry response shape: %w", err)
		}
		list = wrapped.Tools
	}

	var mine []ToolInfo
	for _, tool := range list {
		if tool.MCPServerName == c.serverName {
			mine = append(mine, tool)
		}
	}
	return mine, nil
}
