// Package resources implements MCP resource handlers for the memory store.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (memory://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/optimizer"
	"github.com/mark3labs/mcp-go/mcp"
)

const markdownMIME = "text/markdown"

// Handler manages memory resource endpoints.
type Handler struct {
	store *memory.Store
	opt   *optimizer.Optimizer
}

// NewHandler creates a resource Handler with its dependencies.
// opt may be nil, in which case the optimizer resource reports an error.
func NewHandler(store *memory.Store, opt *optimizer.Optimizer) *Handler {
	return &Handler{store: store, opt: opt}
}

// ─── memory://items ──────────────────────────────────────────────────────────

// ItemsResource returns the MCP resource definition for the item index.
func (h *Handler) ItemsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://items",
		"Memory Items",
		mcp.WithResourceDescription("Index of all stored memories with type, project and tags"),
		mcp.WithMIMEType(markdownMIME),
	)
}

// HandleItems renders every live item as a markdown index.
func (h *Handler) HandleItems(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items, err := h.store.ListItems(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Memory Items (%d total)\n\n", len(items))
	if len(items) == 0 {
		sb.WriteString("No memories stored yet. Use `mem_add` to create one.\n")
		return textResource(req.Params.URI, markdownMIME, sb.String()), nil
	}

	for _, it := range items {
		fmt.Fprintf(&sb, "## %s: %s\n", it.ID, it.Title)
		fmt.Fprintf(&sb, "- **Type:** %s\n", it.Type)
		fmt.Fprintf(&sb, "- **Project:** %s\n", it.Project)
		if len(it.Tags) > 0 {
			fmt.Fprintf(&sb, "- **Tags:** %s\n", strings.Join(it.Tags, ", "))
		}
		fmt.Fprintf(&sb, "- **Updated:** %s\n\n", it.UpdatedAt)
	}
	return textResource(req.Params.URI, markdownMIME, sb.String()), nil
}

// ─── memory://tags and memory://types ────────────────────────────────────────

// TagsResource returns the MCP resource definition for the tag catalog.
func (h *Handler) TagsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://tags",
		"Memory Tags",
		mcp.WithResourceDescription("Catalog of tags available for categorizing memories"),
		mcp.WithMIMEType(markdownMIME),
	)
}

// HandleTags renders the tag catalog.
func (h *Handler) HandleTags(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tags, err := h.store.Tags(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	text := renderCatalog("# Available Tags\n\nUse these tags to categorize your memories:\n\n", tags)
	return textResource(req.Params.URI, markdownMIME, text), nil
}

// TypesResource returns the MCP resource definition for the type catalog.
func (h *Handler) TypesResource() mcp.Resource {
	return mcp.NewResource(
		"memory://types",
		"Memory Types",
		mcp.WithResourceDescription("Catalog of memory types accepted by mem_add"),
		mcp.WithMIMEType(markdownMIME),
	)
}

// HandleTypes renders the type catalog.
func (h *Handler) HandleTypes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	types, err := h.store.Types(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	text := renderCatalog("# Memory Types\n\n", types)
	return textResource(req.Params.URI, markdownMIME, text), nil
}

func renderCatalog(header string, entries []memory.CatalogEntry) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, e := range entries {
		fmt.Fprintf(&sb, "- **%s**: %s\n", e.Name, e.Description)
	}
	return sb.String()
}

// ─── memory://stats ──────────────────────────────────────────────────────────

// StatsResource returns the MCP resource definition for store statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"memory://stats",
		"Memory Statistics",
		mcp.WithResourceDescription("Item counts by type, tag and project"),
		mcp.WithMIMEType(markdownMIME),
	)
}

// HandleStats renders store statistics as markdown tables.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("# Memory Statistics\n\n")
	fmt.Fprintf(&sb, "**Total Items:** %d\n\n", stats.TotalItems)
	writeCountTable(&sb, "By Type", "Type", stats.ByType)
	writeCountTable(&sb, "By Tag", "Tag", stats.ByTag)
	writeCountTable(&sb, "By Project", "Project", stats.ByProject)
	return textResource(req.Params.URI, markdownMIME, sb.String()), nil
}

func writeCountTable(sb *strings.Builder, title, column string, counts []memory.Count) {
	fmt.Fprintf(sb, "## %s\n\n", title)
	if len(counts) == 0 {
		sb.WriteString("_none_\n\n")
		return
	}
	fmt.Fprintf(sb, "| %s | Count |\n|---|---|\n", column)
	for _, c := range counts {
		fmt.Fprintf(sb, "| %s | %d |\n", c.Name, c.Count)
	}
	sb.WriteString("\n")
}

// ─── memory://optimizer ──────────────────────────────────────────────────────

// OptimizerResource returns the MCP resource definition for cache statistics.
func (h *Handler) OptimizerResource() mcp.Resource {
	return mcp.NewResource(
		"memory://optimizer",
		"Optimizer Cache",
		mcp.WithResourceDescription("Optimization cache statistics and provider availability"),
		mcp.WithMIMEType("application/json"),
	)
}

type optimizerStatus struct {
	Available bool `json:"available"`
	Cache     any  `json:"cache"`
}

// HandleOptimizer returns cache statistics as JSON.
func (h *Handler) HandleOptimizer(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if h.opt == nil {
		return errorResource(req.Params.URI, "optimizer not configured"), nil
	}

	data, err := json.MarshalIndent(optimizerStatus{
		Available: h.opt.Available(),
		Cache:     h.opt.CacheStats(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling cache stats: %w", err)
	}
	return textResource(req.Params.URI, "application/json", string(data)), nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func textResource(uri, mime, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mime,
			Text:     text,
		},
	}
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return textResource(uri, "text/plain", fmt.Sprintf("Error: %s", message))
}
