package memtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── ListByTagTool ──────────────────────────────────────────────────────────

// ListByTagTool handles the mem_list_by_tag MCP tool.
type ListByTagTool struct {
	store *memory.Store
}

// NewListByTagTool creates a ListByTagTool.
func NewListByTagTool(store *memory.Store) *ListByTagTool {
	return &ListByTagTool{store: store}
}

// Definition returns the MCP tool definition for mem_list_by_tag.
func (t *ListByTagTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_list_by_tag",
		mcp.WithDescription("List all memories carrying a tag (case-insensitive)."),
		mcp.WithString("tag",
			mcp.Required(),
			mcp.Description("Tag name"),
		),
	)
}

type listResponse struct {
	Success       bool          `json:"success"`
	Count         int           `json:"count,omitempty"`
	Tag           string        `json:"tag,omitempty"`
	Type          string        `json:"type,omitempty"`
	Memories      []memory.Item `json:"memories,omitempty"`
	Error         string        `json:"error,omitempty"`
	AvailableTags []string      `json:"available_tags,omitempty"`
}

// Handle processes the mem_list_by_tag tool call.
func (t *ListByTagTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")
	if tag == "" {
		return mcp.NewToolResultError("'tag' is required"), nil
	}

	items, err := t.store.ListByTag(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}

	if len(items) == 0 {
		used, err := t.store.UsedTags(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
		}
		return jsonResult(listResponse{
			Success:       false,
			Error:         fmt.Sprintf("No memories found with tag '%s'", tag),
			AvailableTags: used,
		})
	}

	return jsonResult(listResponse{Success: true, Count: len(items), Tag: tag, Memories: items})
}

// ─── ListByTypeTool ─────────────────────────────────────────────────────────

// ListByTypeTool handles the mem_list_by_type MCP tool.
type ListByTypeTool struct {
	store *memory.Store
}

// NewListByTypeTool creates a ListByTypeTool.
func NewListByTypeTool(store *memory.Store) *ListByTypeTool {
	return &ListByTypeTool{store: store}
}

// Definition returns the MCP tool definition for mem_list_by_type.
func (t *ListByTypeTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_list_by_type",
		mcp.WithDescription("List all memories of one type."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("One of: note, prd, snippet, decision, pattern, config, troubleshooting"),
		),
	)
}

// Handle processes the mem_list_by_type tool call.
func (t *ListByTypeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	items, err := t.store.ListByType(ctx, typ)
	if errors.Is(err, memory.ErrInvalidType) {
		return failResult("Invalid type '%s'. See memory://types for valid types", typ)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list memories: %v", err)), nil
	}

	if len(items) == 0 {
		return failResult("No memories found of type '%s'", typ)
	}

	return jsonResult(listResponse{Success: true, Count: len(items), Type: typ, Memories: items})
}
