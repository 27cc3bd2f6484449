package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wealthai-labs/crm-gateway/internal/api"
	"github.com/wealthai-labs/crm-gateway/internal/registry"
	"github.com/wealthai-labs/crm-gateway/internal/tools"
)

// GatewayHandler serves the MCP endpoint and the auxiliary listings. Tool
// metadata prefers the remote registry when one is configured, falling back
// to the locally registered definitions.
type GatewayHandler struct {
	manager  *tools.Manager
	registry *registry.Client
	config   *AppConfig
}

func NewGatewayHandler(manager *tools.Manager, reg *registry.Client, config *AppConfig) *GatewayHandler {
	return &GatewayHandler{
		manager:  manager,
		registry: reg,
		config:   config,
	}
}

// HandleMCP dispatches the JSON-RPC-like envelope: initialize, tools/list,
// tools/call. Every outcome, including an internal failure, is answered
// with the uniform envelope — never a bare error body.
func (h *GatewayHandler) HandleMCP(c *gin.Context) {
	var req api.MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.MCPResponse{
			Result: "Invalid request: " + err.Error(),
			Error:  api.ErrorString(err.Error()),
		})
		return
	}

	requestID := uuid.NewString()
	log.Printf("--- MCP request %s (id=%d, method=%s) ---", requestID, req.ID, req.Method)

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Server error: %v", r)
			log.Printf("[MCP %s] panic: %v", requestID, r)
			c.JSON(http.StatusOK, api.MCPResponse{
				ID:     req.ID,
				Result: msg,
				Error:  api.ErrorString(msg),
				Debug:  gin.H{"method": req.Method, "request_id": requestID},
			})
		}
	}()

	switch req.Method {
	case "initialize":
		c.JSON(http.StatusOK, api.MCPResponse{
			ID: req.ID,
			Result: gin.H{
				"protocolVersion": h.config.Server.ProtocolVersion,
				"capabilities":    gin.H{},
				"serverInfo": gin.H{
					"name":    h.config.Server.Name,
					"version": h.config.Server.Version,
				},
			},
		})

	case "tools/list":
		c.JSON(http.StatusOK, api.MCPResponse{
			ID:     req.ID,
			Result: gin.H{"tools": h.toolList(c)},
		})

	case "tools/call":
		h.handleToolCall(c, req)

	default:
		msg := "Unknown method: " + req.Method
		c.JSON(http.StatusOK, api.MCPResponse{
			ID:     req.ID,
			Result: msg,
			Error:  api.ErrorString(msg),
		})
	}
}

func (h *GatewayHandler) handleToolCall(c *gin.Context, req api.MCPRequest) {
	name := req.Params.Name
	pipeline, ok := h.manager.Get(name)
	if !ok {
		msg := "Unknown tool: " + name
		c.JSON(http.StatusOK, api.MCPResponse{
			ID:     req.ID,
			Result: msg,
			Error:  api.ErrorString(msg),
		})
		return
	}

	res := pipeline.Invoke(c.Request.Context(), req.Params.ArgumentsText())
	c.JSON(http.StatusOK, api.MCPResponse{
		ID:     req.ID,
		Result: res.Text,
		Error:  api.ErrorString(res.Err),
		Debug:  res.Debug,
	})
}

// HandleHealth reports liveness.
func (h *GatewayHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   h.config.Server.Name,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleTools lists the tools with their input schemas.
func (h *GatewayHandler) HandleTools(c *gin.Context) {
	type toolEntry struct {
		Name        string           `json:"name"`
		Description string           `json:"description"`
		InputSchema tools.JSONSchema `json:"inputSchema"`
	}
	defs := h.localDefinitions()
	entries := make([]toolEntry, 0, len(defs))
	for _, d := range defs {
		entries = append(entries, toolEntry{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tools": entries})
}

// HandleToolDescriptions lists the tools with their usage contexts, the
// shape the chat frontend consumes.
func (h *GatewayHandler) HandleToolDescriptions(c *gin.Context) {
	type toolEntry struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		UsageContext string `json:"usage_context"`
		Parameters   any    `json:"parameters"`
	}
	defs := h.localDefinitions()
	entries := make([]toolEntry, 0, len(defs))
	for _, d := range defs {
		entries = append(entries, toolEntry{
			Name:         d.Name,
			Description:  d.Description,
			UsageContext: d.UsageContext,
			Parameters: gin.H{
				"text_input": gin.H{
					"type":        "string",
					"description": d.InputHint,
				},
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"tools": entries})
}

// toolList builds the tools/list payload, preferring the remote registry.
func (h *GatewayHandler) toolList(c *gin.Context) []gin.H {
	if h.registry != nil {
		if remote, err := h.registry.FetchTools(c.Request.Context()); err == nil && len(remote) > 0 {
			entries := make([]gin.H, 0, len(remote))
			for _, tool := range remote {
				// Only list remote entries the manager can actually serve.
				local, ok := h.manager.Get(tool.ToolKey)
				if !ok {
					continue
				}
				entries = append(entries, gin.H{
					"name":        tool.ToolKey,
					"description": tool.Description,
					"inputSchema": local.Definition().InputSchema(),
				})
			}
			if len(entries) > 0 {
				return entries
			}
		} else if err != nil {
			log.Printf("[MCP] registry unavailable, serving local definitions: %v", err)
		}
	}

	defs := h.localDefinitions()
	entries := make([]gin.H, 0, len(defs))
	for _, d := range defs {
		entries = append(entries, gin.H{
			"name":        d.Name,
			"description": d.Description,
			"inputSchema": d.InputSchema(),
		})
	}
	return entries
}

func (h *GatewayHandler) localDefinitions() []tools.Definition {
	return h.manager.Definitions()
}
