package memtools

import (
	"context"
	"time"

	"github.com/HendryAvila/memvault/internal/ghapi"
	"github.com/HendryAvila/memvault/internal/llm"
	"github.com/HendryAvila/memvault/internal/optcache"
	"github.com/HendryAvila/memvault/internal/optimizer"
	"github.com/mark3labs/mcp-go/mcp"
)

// probeTimeout bounds each connectivity check.
const probeTimeout = 15 * time.Second

// ─── TestAPIsTool ───────────────────────────────────────────────────────────

// TestAPIsTool handles the mem_test_apis MCP tool.
type TestAPIsTool struct {
	optimizer *optimizer.Optimizer
	github    *ghapi.Client
}

// NewTestAPIsTool creates a TestAPIsTool.
func NewTestAPIsTool(opt *optimizer.Optimizer, github *ghapi.Client) *TestAPIsTool {
	return &TestAPIsTool{optimizer: opt, github: github}
}

// Definition returns the MCP tool definition for mem_test_apis.
func (t *TestAPIsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_test_apis",
		mcp.WithDescription(
			"Check connectivity to the LLM provider and the GitHub API, and report optimization cache statistics.",
		),
	)
}

// APIStatus is the outcome of one connectivity probe.
type APIStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

type testAPIsResponse struct {
	Success    bool           `json:"success"`
	LLM        APIStatus      `json:"llm"`
	GitHub     APIStatus      `json:"github"`
	CacheStats optcache.Stats `json:"cache_stats"`
}

// Handle processes the mem_test_apis tool call.
func (t *TestAPIsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(testAPIsResponse{
		Success:    true,
		LLM:        t.probeLLM(ctx),
		GitHub:     t.probeGitHub(ctx),
		CacheStats: t.optimizer.CacheStats(),
	})
}

func (t *TestAPIsTool) probeLLM(ctx context.Context) APIStatus {
	if !t.optimizer.Available() {
		return APIStatus{Message: "LLM client not initialized (API key not set)"}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := llm.Ping(ctx, t.optimizer.Completer()); err != nil {
		return APIStatus{Message: "Connection failed: " + err.Error()}
	}
	return APIStatus{Connected: true, Message: "Connected successfully"}
}

func (t *TestAPIsTool) probeGitHub(ctx context.Context) APIStatus {
	if t.github == nil || !t.github.HasToken() {
		return APIStatus{Message: "GitHub token not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	msg, err := t.github.Ping(ctx)
	if err != nil {
		return APIStatus{Message: "Connection failed: " + err.Error()}
	}
	return APIStatus{Connected: true, Message: msg}
}

// ─── CacheStatsTool ─────────────────────────────────────────────────────────

// CacheStatsTool handles the mem_cache_stats MCP tool.
type CacheStatsTool struct {
	optimizer *optimizer.Optimizer
}

// NewCacheStatsTool creates a CacheStatsTool.
func NewCacheStatsTool(opt *optimizer.Optimizer) *CacheStatsTool {
	return &CacheStatsTool{optimizer: opt}
}

// Definition returns the MCP tool definition for mem_cache_stats.
func (t *CacheStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_cache_stats",
		mcp.WithDescription("Show optimization cache statistics: entries, tokens saved, hit and miss counts."),
	)
}

type cacheStatsResponse struct {
	Success bool           `json:"success"`
	Stats   optcache.Stats `json:"stats"`
}

// Handle processes the mem_cache_stats tool call.
func (t *CacheStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(cacheStatsResponse{Success: true, Stats: t.optimizer.CacheStats()})
}

// ─── CacheClearTool ─────────────────────────────────────────────────────────

// CacheClearTool handles the mem_cache_clear MCP tool.
type CacheClearTool struct {
	optimizer *optimizer.Optimizer
}

// NewCacheClearTool creates a CacheClearTool.
func NewCacheClearTool(opt *optimizer.Optimizer) *CacheClearTool {
	return &CacheClearTool{optimizer: opt}
}

// Definition returns the MCP tool definition for mem_cache_clear.
func (t *CacheClearTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_cache_clear",
		mcp.WithDescription("Drop every cached optimization. The next mem_get_optimized call re-optimizes."),
	)
}

type cacheClearResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

// Handle processes the mem_cache_clear tool call.
func (t *CacheClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cleared := t.optimizer.CacheStats().TotalEntries
	t.optimizer.ClearCache()
	return jsonResult(cacheClearResponse{
		Success: true,
		Message: "Optimization cache cleared",
		Cleared: cleared,
	})
}
