package server

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/HendryAvila/memvault/internal/config"
	"github.com/HendryAvila/memvault/internal/llm"
)

// fakeCompleter answers every request with a fixed reply.
type fakeCompleter struct{ reply string }

func (f fakeCompleter) Complete(context.Context, llm.Request) (string, error) {
	return f.reply, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Memory.DataDir = t.TempDir()
	return cfg
}

func stubCompleter(t *testing.T, fn func(llm.Config) (llm.Completer, error)) {
	t.Helper()
	orig := newCompleter
	newCompleter = fn
	t.Cleanup(func() { newCompleter = orig })
}

func TestNew_WithoutAPIKey(t *testing.T) {
	s, cleanup, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()

	if s == nil {
		t.Fatal("server is nil")
	}
}

func TestNew_RegistersEverything(t *testing.T) {
	s, cleanup, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cleanup()

	tools := s.ListTools()
	for _, name := range []string{
		"mem_add", "mem_get", "mem_get_optimized", "mem_search", "mem_update",
		"mem_delete", "mem_reset", "mem_list_by_tag", "mem_list_by_type",
		"mem_test_apis", "mem_cache_stats", "mem_cache_clear",
	} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(tools) != 12 {
		t.Errorf("registered %d tools, want 12", len(tools))
	}
}

func TestNewApp_NoProvider(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if app.Optimizer.Available() {
		t.Error("optimizer should be unavailable without an API key")
	}
	if app.Recall.DefaultMaxTokens() != 1500 {
		t.Errorf("DefaultMaxTokens = %d, want 1500", app.Recall.DefaultMaxTokens())
	}
}

func TestNewApp_WiresProviderAndBudget(t *testing.T) {
	stubCompleter(t, func(cfg llm.Config) (llm.Completer, error) {
		if cfg.APIKey != "sk-test" {
			t.Errorf("APIKey = %q", cfg.APIKey)
		}
		return fakeCompleter{reply: "short"}, nil
	})

	cfg := testConfig(t)
	cfg.LLM.APIKey = "sk-test"
	cfg.Optimizer.DefaultMaxTokens = 5

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if !app.Optimizer.Available() {
		t.Fatal("optimizer should be available")
	}

	ctx := context.Background()
	item, err := app.Store.AddItem(ctx, memoryParams(strings.Repeat("lengthy words here ", 200)))
	if err != nil {
		t.Fatal(err)
	}

	resp := app.Recall.GetOptimized(ctx, item.ID, 0, true)
	if !resp.Success {
		t.Fatalf("GetOptimized failed: %+v", resp)
	}
	if resp.Memory.Content != "short" {
		t.Errorf("content = %q, want optimized text", resp.Memory.Content)
	}
	if !resp.Optimization.Success {
		t.Errorf("optimization = %+v", resp.Optimization)
	}
}

func TestNewApp_ProviderError(t *testing.T) {
	stubCompleter(t, func(llm.Config) (llm.Completer, error) {
		return nil, llm.ErrUnknownProvider
	})

	_, err := NewApp(context.Background(), testConfig(t), nil)
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestNewApp_SeedImport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memory.SeedFile = writeSeed(t)

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	item, err := app.Store.GetItem(context.Background(), "mem-001")
	if err != nil {
		t.Fatalf("seeded item missing: %v", err)
	}
	if item.Title != "Seeded" {
		t.Errorf("title = %q", item.Title)
	}
}

func TestNewApp_BadSeedIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Memory.SeedFile = cfg.Memory.DataDir + "/missing.json"

	app, err := NewApp(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("missing seed should only warn: %v", err)
	}
	app.Close()
}

func TestServerInstructions(t *testing.T) {
	text := serverInstructions()
	for _, want := range []string{"mem_add", "mem_get_optimized", "fallback"} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
}
