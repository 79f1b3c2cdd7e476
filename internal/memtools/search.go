package memtools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the mem_search MCP tool.
type SearchTool struct {
	store *memory.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *memory.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for mem_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_search",
		mcp.WithDescription(
			"Search memories by keyword in title and content, with optional tag, type and project filters. "+
				"Returns up to 10 matches, most relevant first.",
		),
		mcp.WithString("search_term",
			mcp.Required(),
			mcp.Description("Keyword or phrase to look for"),
		),
		mcp.WithString("tag",
			mcp.Description("Only items carrying this tag"),
		),
		mcp.WithString("type",
			mcp.Description("Only items of this type"),
		),
		mcp.WithString("project",
			mcp.Description("Only items in this project"),
		),
	)
}

type searchResponse struct {
	Success    bool                  `json:"success"`
	Count      int                   `json:"count,omitempty"`
	Memories   []memory.SearchResult `json:"memories,omitempty"`
	Error      string                `json:"error,omitempty"`
	Suggestion string                `json:"suggestion,omitempty"`
}

// Handle processes the mem_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term := req.GetString("search_term", "")
	if term == "" {
		return mcp.NewToolResultError("'search_term' is required"), nil
	}

	results, err := t.store.Search(ctx, term, memory.SearchOptions{
		Tag:     req.GetString("tag", ""),
		Type:    req.GetString("type", ""),
		Project: req.GetString("project", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return jsonResult(searchResponse{
			Success:    false,
			Error:      fmt.Sprintf("No memories found matching '%s'", term),
			Suggestion: "Try broader search terms or remove filters",
		})
	}

	return jsonResult(searchResponse{Success: true, Count: len(results), Memories: results})
}
