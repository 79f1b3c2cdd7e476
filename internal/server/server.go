// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"

	"github.com/HendryAvila/memvault/internal/config"
	"github.com/HendryAvila/memvault/internal/ghapi"
	"github.com/HendryAvila/memvault/internal/llm"
	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/memtools"
	"github.com/HendryAvila/memvault/internal/optcache"
	"github.com/HendryAvila/memvault/internal/optimizer"
	"github.com/HendryAvila/memvault/internal/prompts"
	"github.com/HendryAvila/memvault/internal/recall"
	"github.com/HendryAvila/memvault/internal/resources"
	"github.com/HendryAvila/memvault/internal/tokens"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Constructors swapped in tests.
var (
	newCompleter = llm.New
	newCounter   = tokens.NewDefault
)

// App holds the long-lived dependencies shared by the MCP server and the
// CLI subcommands.
type App struct {
	Store     *memory.Store
	Optimizer *optimizer.Optimizer
	Recall    *recall.Service
	GitHub    *ghapi.Client
	Logger    *slog.Logger
}

// NewApp resolves every dependency described by cfg. A missing LLM API key
// is not an error: the optimizer then returns content unchanged. A nil
// logger discards output.
//
// The caller must Close the returned App.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := memory.New(cfg.MemorySettings())
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	if cfg.Memory.SeedFile != "" {
		res, err := store.ImportSeedFile(ctx, cfg.Memory.SeedFile)
		if err != nil {
			log.Printf("WARNING: seed import skipped: %v", err)
		} else {
			logger.Info("seed imported",
				"items", res.ItemsImported, "tags", res.TagsImported, "types", res.TypesImported)
		}
	}

	counter, err := newCounter()
	if err != nil {
		log.Printf("WARNING: tiktoken unavailable, estimating tokens: %v", err)
	}

	cache := optcache.New(
		optcache.WithTTL(cfg.Optimizer.CacheTTL),
		optcache.WithMaxEntries(cfg.Optimizer.CacheMaxEntries),
	)

	completer, err := newCompleter(cfg.LLMClient())
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Printf("WARNING: no LLM API key configured, memories are served unoptimized")
		completer = nil
	case err != nil:
		_ = store.Close()
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	opt := optimizer.New(completer, counter, cache, cfg.OptimizerSettings(),
		logger.With("component", "optimizer"))

	svc := recall.NewService(store, opt)
	svc.SetDefaultMaxTokens(cfg.Optimizer.DefaultMaxTokens)

	gh := ghapi.New(ghapi.Config{
		Token:     cfg.GitHub.Token,
		BaseURL:   cfg.GitHub.BaseURL,
		UserAgent: "memvault/" + Version,
	})

	return &App{
		Store:     store,
		Optimizer: opt,
		Recall:    svc,
		GitHub:    gh,
		Logger:    logger,
	}, nil
}

// Close releases the memory store.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		log.Printf("WARNING: memory store close: %v", err)
	}
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered.
//
// The returned cleanup function closes the memory store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.MCPServer, func(), error) {
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}

	s := server.NewMCPServer(
		"memvault",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerMemoryTools(s, app)
	registerOptimizerTools(s, app)
	registerPrompts(s)
	registerResources(s, app)

	return s, app.Close, nil
}

// noop is the cleanup returned when construction fails.
func noop() {}

// registerMemoryTools registers the item CRUD and query tools.
func registerMemoryTools(s *server.MCPServer, app *App) {
	// --- Save & update ---
	addTool := memtools.NewAddTool(app.Store)
	s.AddTool(addTool.Definition(), addTool.Handle)

	updateTool := memtools.NewUpdateTool(app.Store)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	// --- Query & retrieval ---
	getTool := memtools.NewGetTool(app.Store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	searchTool := memtools.NewSearchTool(app.Store)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	byTag := memtools.NewListByTagTool(app.Store)
	s.AddTool(byTag.Definition(), byTag.Handle)

	byType := memtools.NewListByTypeTool(app.Store)
	s.AddTool(byType.Definition(), byType.Handle)

	// --- Management ---
	deleteTool := memtools.NewDeleteTool(app.Store)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	resetTool := memtools.NewResetTool(app.Store, app.Optimizer)
	s.AddTool(resetTool.Definition(), resetTool.Handle)
}

// registerOptimizerTools registers the budgeted retrieval and cache tools.
func registerOptimizerTools(s *server.MCPServer, app *App) {
	getOptimized := memtools.NewGetOptimizedTool(app.Recall)
	s.AddTool(getOptimized.Definition(), getOptimized.Handle)

	testAPIs := memtools.NewTestAPIsTool(app.Optimizer, app.GitHub)
	s.AddTool(testAPIs.Definition(), testAPIs.Handle)

	cacheStats := memtools.NewCacheStatsTool(app.Optimizer)
	s.AddTool(cacheStats.Definition(), cacheStats.Handle)

	cacheClear := memtools.NewCacheClearTool(app.Optimizer)
	s.AddTool(cacheClear.Definition(), cacheClear.Handle)
}

func registerPrompts(s *server.MCPServer) {
	codeReview := prompts.NewCodeReviewPrompt()
	s.AddPrompt(codeReview.Definition(), codeReview.Handle)

	refactoring := prompts.NewRefactoringPlanPrompt()
	s.AddPrompt(refactoring.Definition(), refactoring.Handle)

	toolDesign := prompts.NewToolDesignPrompt()
	s.AddPrompt(toolDesign.Definition(), toolDesign.Handle)

	analysis := prompts.NewCodebaseAnalysisPrompt()
	s.AddPrompt(analysis.Definition(), analysis.Handle)
}

func registerResources(s *server.MCPServer, app *App) {
	h := resources.NewHandler(app.Store, app.Optimizer)
	s.AddResource(h.ItemsResource(), h.HandleItems)
	s.AddResource(h.TagsResource(), h.HandleTags)
	s.AddResource(h.TypesResource(), h.HandleTypes)
	s.AddResource(h.StatsResource(), h.HandleStats)
	s.AddResource(h.OptimizerResource(), h.HandleOptimizer)
}

// serverInstructions returns the system instructions that tell the AI
// how to use memvault effectively.
func serverInstructions() string {
	return `You have access to memvault, a persistent memory server for coding work.

## WHAT TO STORE

Save durable knowledge with mem_add: decisions and their reasons, project
conventions, code snippets worth reusing, configuration that was hard to get
right, troubleshooting steps that worked. Pick one of the types listed in
the memory://types resource and tag items using memory://tags.

## HOW TO RETRIEVE

- mem_search ranks items by matches of the phrase and its words, with title
  matches weighing more. Filter by tag, type or project to narrow results.
- mem_get returns an item verbatim.
- mem_get_optimized returns an item condensed to a token budget
  (max_tokens, default 1500). Code, commands, paths, versions and numbers
  are preserved. Prefer it for long items when context is tight.

If optimization is unavailable the original content is returned with
"fallback": true. That is not an error: use the content as is.

## MAINTENANCE

- mem_update edits title, content, tags or project.
- mem_delete hides an item (soft delete); mem_reset restores hidden items.
- mem_cache_stats and mem_cache_clear inspect and reset optimization results.
- mem_test_apis checks the LLM provider and GitHub credentials.`
}
