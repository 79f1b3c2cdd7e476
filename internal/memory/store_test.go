package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HendryAvila/memvault/internal/memory"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New(memory.Config{DataDir: t.TempDir(), MaxSearchResults: 10})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustAdd saves an item or fails the test.
func mustAdd(t *testing.T, s *memory.Store, p memory.AddItemParams) *memory.Item {
	t.Helper()
	item, err := s.AddItem(context.Background(), p)
	if err != nil {
		t.Fatalf("AddItem(%q): %v", p.Title, err)
	}
	return item
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "memvault.db")); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
}

func TestNew_IdempotentReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	mustAdd(t, s1, memory.AddItemParams{Type: "note", Title: "persisted", Content: "body"})
	s1.Close()

	s2, err := memory.New(memory.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	item, err := s2.GetItem(ctx, "mem-001")
	if err != nil {
		t.Fatalf("GetItem after reopen: %v", err)
	}
	if item.Title != "persisted" {
		t.Errorf("title = %q, want %q", item.Title, "persisted")
	}

	types, err := s2.Types(ctx)
	if err != nil {
		t.Fatalf("Types: %v", err)
	}
	if len(types) != len(memory.DefaultTypes) {
		t.Errorf("types = %d, want %d (catalog must not duplicate on reopen)", len(types), len(memory.DefaultTypes))
	}
}

func TestNew_BadDataDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := memory.New(memory.Config{DataDir: filepath.Join(file, "sub")}); err == nil {
		t.Fatal("expected error for data dir under a regular file")
	}
}

// ─── Add / Get ──────────────────────────────────────────────────────────────

func TestAddItem_SequentialIDs(t *testing.T) {
	s := newTestStore(t)

	for i, want := range []string{"mem-001", "mem-002", "mem-003"} {
		item := mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "n", Content: "c"})
		if item.ID != want {
			t.Errorf("item %d: ID = %q, want %q", i, item.ID, want)
		}
	}
}

func TestAddItem_Defaults(t *testing.T) {
	s := newTestStore(t)
	item := mustAdd(t, s, memory.AddItemParams{Type: "Snippet", Title: "t", Content: "c"})

	if item.Project != memory.DefaultProject {
		t.Errorf("project = %q, want %q", item.Project, memory.DefaultProject)
	}
	if item.Type != "snippet" {
		t.Errorf("type = %q, want lowercased %q", item.Type, "snippet")
	}
	if item.Tags == nil || len(item.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil slice", item.Tags)
	}
	if item.CreatedAt == "" || item.CreatedAt != item.UpdatedAt {
		t.Errorf("timestamps = %q / %q, want equal and set", item.CreatedAt, item.UpdatedAt)
	}
}

func TestAddItem_InvalidType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddItem(context.Background(), memory.AddItemParams{Type: "essay", Title: "t", Content: "c"})
	if !errors.Is(err, memory.ErrInvalidType) {
		t.Fatalf("err = %v, want ErrInvalidType", err)
	}
}

func TestAddItem_TagsTrimmed(t *testing.T) {
	s := newTestStore(t)
	item := mustAdd(t, s, memory.AddItemParams{
		Type: "note", Title: "t", Content: "c",
		Tags: []string{" api ", "", "golang"},
	})
	if strings.Join(item.Tags, ",") != "api,golang" {
		t.Errorf("tags = %v, want [api golang]", item.Tags)
	}
}

func TestAddItem_Concurrent(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddItem(context.Background(), memory.AddItemParams{Type: "note", Title: "t", Content: "c"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddItem: %v", err)
		}
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 20 {
		t.Errorf("count = %d, want 20", n)
	}
}

func TestGetItem_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "t", Content: "c"})

	item, err := s.GetItem(context.Background(), "MEM-001")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.ID != "mem-001" {
		t.Errorf("ID = %q", item.ID)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetItem(context.Background(), "mem-999")
	if !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ─── Update ─────────────────────────────────────────────────────────────────

func TestUpdateItem_Partial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	restore := memory.SetClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) })
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "old", Content: "body", Tags: []string{"api"}, Project: "alpha"})
	restore()

	restore = memory.SetClock(func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) })
	defer restore()

	title := "new"
	tags := []string{"golang", "testing"}
	item, err := s.UpdateItem(ctx, "mem-001", memory.UpdateItemParams{Title: &title, Tags: &tags})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	if item.Title != "new" {
		t.Errorf("title = %q", item.Title)
	}
	if item.Content != "body" {
		t.Errorf("content changed to %q", item.Content)
	}
	if item.Project != "alpha" {
		t.Errorf("project changed to %q", item.Project)
	}
	if strings.Join(item.Tags, ",") != "golang,testing" {
		t.Errorf("tags = %v", item.Tags)
	}
	if item.UpdatedAt == item.CreatedAt {
		t.Error("updated_at should move forward")
	}
	if !strings.HasPrefix(item.UpdatedAt, "2025-02-01") {
		t.Errorf("updated_at = %q, want 2025-02-01...", item.UpdatedAt)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	_, err := s.UpdateItem(context.Background(), "mem-404", memory.UpdateItemParams{Title: &title})
	if !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ─── Delete / Reset ─────────────────────────────────────────────────────────

func TestDeleteItem_SoftThenReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "keep", Content: "c"})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "drop", Content: "c"})

	deleted, err := s.DeleteItem(ctx, "mem-002", false)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if deleted.Title != "drop" {
		t.Errorf("deleted item title = %q", deleted.Title)
	}
	if _, err := s.GetItem(ctx, "mem-002"); !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("soft-deleted item still visible: %v", err)
	}

	restored, err := s.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if restored != 1 {
		t.Errorf("restored = %d, want 1", restored)
	}
	if _, err := s.GetItem(ctx, "mem-002"); err != nil {
		t.Fatalf("item not restored: %v", err)
	}
}

func TestDeleteItem_HardIsPermanent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "gone", Content: "c"})

	if _, err := s.DeleteItem(ctx, "mem-001", true); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetItem(ctx, "mem-001"); !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("hard-deleted item came back: %v", err)
	}
}

func TestDeleteItem_IDsNotReused(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "a", Content: "c"})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "b", Content: "c"})

	if _, err := s.DeleteItem(ctx, "mem-002", false); err != nil {
		t.Fatal(err)
	}
	item := mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "c", Content: "c"})
	if item.ID != "mem-003" {
		t.Errorf("ID = %q, want mem-003 (soft-deleted IDs stay reserved)", item.ID)
	}
}

func TestDeleteItem_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.DeleteItem(context.Background(), "mem-001", false); !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestRelevance(t *testing.T) {
	tests := []struct {
		name    string
		term    string
		title   string
		content string
		want    int
	}{
		{"no match", "redis", "Postgres setup", "tuning notes", 0},
		{"title phrase", "auth flow", "Auth Flow", "", 10 + 3 + 3},
		{"content phrase", "auth flow", "", "the auth flow uses jwt", 5 + 1 + 1},
		{"words only", "jwt refresh", "JWT basics", "how refresh works", 3 + 1},
		{"everything", "cache", "Cache layer", "cache ttl", 10 + 5 + 3 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := memory.Relevance(tt.term, tt.title, tt.content); got != tt.want {
				t.Errorf("Relevance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSearch_RankedAndFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "Deploy notes", Content: "uses docker", Tags: []string{"devops"}})
	mustAdd(t, s, memory.AddItemParams{Type: "config", Title: "Docker compose", Content: "docker compose file", Tags: []string{"devops"}, Project: "shop"})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "Unrelated", Content: "nothing here"})

	results, err := s.Search(ctx, "docker", memory.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ID != "mem-002" {
		t.Errorf("top result = %s, want mem-002 (title hit)", results[0].ID)
	}
	if results[0].Relevance <= results[1].Relevance {
		t.Errorf("results not ordered by relevance: %d then %d", results[0].Relevance, results[1].Relevance)
	}

	results, err = s.Search(ctx, "docker", memory.SearchOptions{Type: "NOTE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "mem-001" {
		t.Errorf("type filter: got %v", results)
	}

	results, err = s.Search(ctx, "docker", memory.SearchOptions{Project: "Shop", Tag: "DEVOPS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "mem-002" {
		t.Errorf("project+tag filter: got %v", results)
	}
}

func TestSearch_LimitTopTen(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 15; i++ {
		mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "golang tip", Content: "c"})
	}
	results, err := s.Search(context.Background(), "golang", memory.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 10 {
		t.Errorf("results = %d, want 10", len(results))
	}
}

func TestSearch_SkipsDeleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "secret", Content: "c"})
	if _, err := s.DeleteItem(ctx, "mem-001", false); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, "secret", memory.SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("deleted item returned by search: %v", results)
	}
}

// ─── Listing ────────────────────────────────────────────────────────────────

func TestListByTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "a", Content: "c", Tags: []string{"API"}})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "b", Content: "c", Tags: []string{"golang"}})

	items, err := s.ListByTag(ctx, "api")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "a" {
		t.Errorf("ListByTag(api) = %v", items)
	}

	used, err := s.UsedTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(used, ",") != "API,golang" {
		t.Errorf("UsedTags = %v", used)
	}
}

func TestListByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "decision", Title: "a", Content: "c"})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "b", Content: "c"})

	items, err := s.ListByType(ctx, "decision")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "a" {
		t.Errorf("ListByType(decision) = %v", items)
	}

	if _, err := s.ListByType(ctx, "poem"); !errors.Is(err, memory.ErrInvalidType) {
		t.Errorf("err = %v, want ErrInvalidType", err)
	}
}

func TestIDs(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 7; i++ {
		mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "t", Content: "c"})
	}
	ids, err := s.IDs(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids, ",") != "mem-001,mem-002,mem-003,mem-004,mem-005" {
		t.Errorf("IDs = %v", ids)
	}
}

// ─── Catalogs / Stats ───────────────────────────────────────────────────────

func TestCatalogs_Seeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tags, err := s.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != len(memory.DefaultTags) {
		t.Errorf("tags = %d, want %d", len(tags), len(memory.DefaultTags))
	}
	types, err := s.Types(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"note", "prd", "snippet", "decision", "pattern", "config", "troubleshooting"} {
		found := false
		for _, ty := range types {
			if ty.Name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("type %q missing from catalog", want)
		}
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "a", Content: "c", Tags: []string{"api", "golang"}, Project: "shop"})
	mustAdd(t, s, memory.AddItemParams{Type: "note", Title: "b", Content: "c", Tags: []string{"api"}})
	mustAdd(t, s, memory.AddItemParams{Type: "config", Title: "c", Content: "c", Project: "shop"})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalItems != 3 {
		t.Errorf("total = %d", stats.TotalItems)
	}
	if len(stats.ByType) != 2 || stats.ByType[0].Name != "config" || stats.ByType[1].Count != 2 {
		t.Errorf("by type = %v", stats.ByType)
	}
	if stats.ByTag[0].Name != "api" || stats.ByTag[0].Count != 2 {
		t.Errorf("by tag = %v", stats.ByTag)
	}
	if stats.ByProject[0].Name != "shop" || stats.ByProject[0].Count != 2 {
		t.Errorf("by project = %v", stats.ByProject)
	}
}

// ─── Import ─────────────────────────────────────────────────────────────────

func TestImportSeedFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := memory.SeedData{
		Items: []memory.Item{
			{ID: "mem-010", Type: "pattern", Title: "Repository pattern", Content: "c", Tags: []string{"architecture"}},
		},
		Tags:  []memory.CatalogEntry{{Name: "rust", Description: "Rust notes."}, {Name: "api", Description: "dup"}},
		Types: []memory.CatalogEntry{{Name: "runbook", Description: "Operational runbooks."}},
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := s.ImportSeedFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportSeedFile: %v", err)
	}
	if res.ItemsImported != 1 || res.TagsImported != 1 || res.TypesImported != 1 {
		t.Errorf("result = %+v", res)
	}

	item, err := s.GetItem(ctx, "mem-010")
	if err != nil {
		t.Fatalf("imported item missing: %v", err)
	}
	if item.Project != memory.DefaultProject {
		t.Errorf("project = %q", item.Project)
	}

	// Imported types are valid for new items, and IDs continue after the seed.
	next := mustAdd(t, s, memory.AddItemParams{Type: "runbook", Title: "r", Content: "c"})
	if next.ID != "mem-011" {
		t.Errorf("next ID = %q, want mem-011", next.ID)
	}

	// Re-import is a no-op.
	res, err = s.ImportSeedFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.ItemsImported != 0 {
		t.Errorf("re-import inserted %d items", res.ItemsImported)
	}
}

func TestImport_RejectsBadID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Import(context.Background(), &memory.SeedData{
		Items: []memory.Item{{ID: "note-1", Type: "note", Title: "t", Content: "c"}},
	})
	if err == nil {
		t.Fatal("expected error for id without mem- prefix")
	}
}

func TestImportSeedFile_Missing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ImportSeedFile(context.Background(), filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestTruncate(t *testing.T) {
	if got := memory.Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate = %q", got)
	}
	if got := memory.Truncate("hi", 5); got != "hi" {
		t.Errorf("Truncate = %q", got)
	}
}
