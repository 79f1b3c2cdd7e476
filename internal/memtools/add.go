package memtools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// AddTool handles the mem_add MCP tool.
type AddTool struct {
	store *memory.Store
}

// NewAddTool creates an AddTool with the given memory store.
func NewAddTool(store *memory.Store) *AddTool {
	return &AddTool{store: store}
}

// Definition returns the MCP tool definition for mem_add.
func (t *AddTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_add",
		mcp.WithDescription(
			"Add a new memory item (note, PRD, snippet, decision, pattern, config or troubleshooting entry). "+
				"IDs are assigned sequentially (mem-001, mem-002, ...).",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short descriptive title"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full content of the memory"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("One of: note, prd, snippet, decision, pattern, config, troubleshooting"),
		),
		mcp.WithArray("tags",
			mcp.Description("Tags for categorization (see memory://tags)"),
			mcp.WithStringItems(),
		),
		mcp.WithString("project",
			mcp.Description("Associated project name (default: general)"),
		),
	)
}

type addResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Memory  *memory.Item `json:"memory"`
}

// Handle processes the mem_add tool call.
func (t *AddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := strings.TrimSpace(req.GetString("title", ""))
	content := req.GetString("content", "")
	typ := req.GetString("type", "")

	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	if typ == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}

	tags, _ := stringSliceArg(req, "tags")

	item, err := t.store.AddItem(ctx, memory.AddItemParams{
		Type:    typ,
		Title:   title,
		Content: content,
		Tags:    tags,
		Project: req.GetString("project", memory.DefaultProject),
	})
	if errors.Is(err, memory.ErrInvalidType) {
		return failResult("Invalid type '%s'. See memory://types for valid types", typ)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add memory: %v", err)), nil
	}

	return jsonResult(addResponse{
		Success: true,
		Message: fmt.Sprintf("Memory '%s' created successfully", item.ID),
		Memory:  item,
	})
}
