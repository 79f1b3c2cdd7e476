package memtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/optimizer"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── UpdateTool ─────────────────────────────────────────────────────────────

// UpdateTool handles the mem_update MCP tool.
type UpdateTool struct {
	store *memory.Store
}

// NewUpdateTool creates an UpdateTool with the given memory store.
func NewUpdateTool(store *memory.Store) *UpdateTool {
	return &UpdateTool{store: store}
}

// Definition returns the MCP tool definition for mem_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_update",
		mcp.WithDescription(
			"Update an existing memory by ID. Only provided fields are changed; tags replace the whole list.",
		),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("Memory ID to update"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New content")),
		mcp.WithArray("tags",
			mcp.Description("New tag list"),
			mcp.WithStringItems(),
		),
		mcp.WithString("project", mcp.Description("New project")),
	)
}

type updateResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Memory  *memory.Item `json:"memory"`
}

// Handle processes the mem_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}

	params := memory.UpdateItemParams{
		Title:   optionalString(req, "title"),
		Content: optionalString(req, "content"),
		Project: optionalString(req, "project"),
	}
	if tags, ok := stringSliceArg(req, "tags"); ok {
		params.Tags = &tags
	}
	if params.Title == nil && params.Content == nil && params.Project == nil && params.Tags == nil {
		return mcp.NewToolResultError("nothing to update: provide title, content, tags or project"), nil
	}

	item, err := t.store.UpdateItem(ctx, id, params)
	if errors.Is(err, memory.ErrNotFound) {
		return failResult("Memory '%s' not found", id)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update memory: %v", err)), nil
	}

	return jsonResult(updateResponse{
		Success: true,
		Message: fmt.Sprintf("Memory '%s' updated successfully", item.ID),
		Memory:  item,
	})
}

// ─── DeleteTool ─────────────────────────────────────────────────────────────

// DeleteTool handles the mem_delete MCP tool.
type DeleteTool struct {
	store *memory.Store
}

// NewDeleteTool creates a DeleteTool with the given memory store.
func NewDeleteTool(store *memory.Store) *DeleteTool {
	return &DeleteTool{store: store}
}

// Definition returns the MCP tool definition for mem_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_delete",
		mcp.WithDescription(
			"Delete a memory by ID. Soft-delete by default (mem_reset restores it); "+
				"set hard_delete=true for permanent deletion.",
		),
		mcp.WithString("memory_id",
			mcp.Required(),
			mcp.Description("Memory ID to delete"),
		),
		mcp.WithBoolean("hard_delete",
			mcp.Description("If true, permanently deletes the memory"),
		),
	)
}

type deleteResponse struct {
	Success        bool         `json:"success"`
	Message        string       `json:"message"`
	DeletedMemory  *memory.Item `json:"deleted_memory"`
	RemainingCount int          `json:"remaining_count"`
}

// Handle processes the mem_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("memory_id", "")
	if id == "" {
		return mcp.NewToolResultError("'memory_id' is required"), nil
	}
	hardDelete := boolArg(req, "hard_delete", false)

	deleted, err := t.store.DeleteItem(ctx, id, hardDelete)
	if errors.Is(err, memory.ErrNotFound) {
		return failResult("Memory '%s' not found", id)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete memory: %v", err)), nil
	}

	remaining, err := t.store.Count(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count memories: %v", err)), nil
	}

	action := "deleted"
	if hardDelete {
		action = "permanently deleted"
	}
	return jsonResult(deleteResponse{
		Success:        true,
		Message:        fmt.Sprintf("Memory '%s' %s successfully", deleted.ID, action),
		DeletedMemory:  deleted,
		RemainingCount: remaining,
	})
}

// ─── ResetTool ──────────────────────────────────────────────────────────────

// ResetTool handles the mem_reset MCP tool.
type ResetTool struct {
	store     *memory.Store
	optimizer *optimizer.Optimizer
}

// NewResetTool creates a ResetTool. The optimizer's cache is cleared on reset.
func NewResetTool(store *memory.Store, opt *optimizer.Optimizer) *ResetTool {
	return &ResetTool{store: store, optimizer: opt}
}

// Definition returns the MCP tool definition for mem_reset.
func (t *ResetTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_reset",
		mcp.WithDescription(
			"Restore all soft-deleted memories and clear the optimization cache.",
		),
	)
}

type resetResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Restored    int    `json:"restored"`
	MemoryCount int    `json:"memory_count"`
}

// Handle processes the mem_reset tool call.
func (t *ResetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	restored, err := t.store.Reset(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reset memory: %v", err)), nil
	}
	if t.optimizer != nil {
		t.optimizer.ClearCache()
	}

	count, err := t.store.Count(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count memories: %v", err)), nil
	}

	return jsonResult(resetResponse{
		Success:     true,
		Message:     "Memory store reset to original state",
		Restored:    restored,
		MemoryCount: count,
	})
}
