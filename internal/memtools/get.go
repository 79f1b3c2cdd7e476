package memtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/recall"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── GetTool ────────────────────────────────────────────────────────────────

// GetTool handles the mem_get MCP tool.
type GetTool struct {
	store *memory.Store
}

// NewGetTool creates a GetTool with the given memory store.
func NewGetTool(store *memory.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for mem_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get",
		mcp.WithDescription("Retrieve a memory item by ID, with its full content."),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("Memory ID (e.g. mem-001), case-insensitive"),
		),
	)
}

type getResponse struct {
	Success      bool         `json:"success"`
	Memory       *memory.Item `json:"memory,omitempty"`
	Error        string       `json:"error,omitempty"`
	AvailableIDs []string     `json:"available_ids,omitempty"`
}

// Handle processes the mem_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	item, err := t.store.GetItem(ctx, id)
	if errors.Is(err, memory.ErrNotFound) {
		ids, _ := t.store.IDs(ctx, 5)
		return jsonResult(getResponse{
			Success:      false,
			Error:        fmt.Sprintf("Memory '%s' not found", id),
			AvailableIDs: ids,
		})
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get memory: %v", err)), nil
	}

	return jsonResult(getResponse{Success: true, Memory: item})
}

// ─── GetOptimizedTool ───────────────────────────────────────────────────────

// GetOptimizedTool handles the mem_get_optimized MCP tool.
type GetOptimizedTool struct {
	service *recall.Service
}

// NewGetOptimizedTool creates a GetOptimizedTool.
func NewGetOptimizedTool(service *recall.Service) *GetOptimizedTool {
	return &GetOptimizedTool{service: service}
}

// Definition returns the MCP tool definition for mem_get_optimized.
func (t *GetOptimizedTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_get_optimized",
		mcp.WithDescription(
			"Retrieve a memory condensed to a token budget by an LLM, preserving code, commands, "+
				"configuration values, paths and version numbers. Falls back to the original content "+
				"when optimization is unavailable or fails; results are cached for an hour.",
		),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("Memory ID (e.g. mem-001)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Target maximum token count (default: 1500)"),
		),
		mcp.WithBoolean("use_cache",
			mcp.Description("Reuse a cached optimization when available (default: true)"),
		),
	)
}

// Handle processes the mem_get_optimized tool call.
func (t *GetOptimizedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	maxTokens := intArg(req, "max_tokens", t.service.DefaultMaxTokens())
	useCache := boolArg(req, "use_cache", true)

	return jsonResult(t.service.GetOptimized(ctx, id, maxTokens, useCache))
}
