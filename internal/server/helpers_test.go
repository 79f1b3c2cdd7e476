package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/tokens"
)

// TestMain keeps tests offline: the tiktoken encoding is fetched on first use.
func TestMain(m *testing.M) {
	newCounter = func() (tokens.Counter, error) {
		return tokens.NewEstimatingCounter(), nil
	}
	os.Exit(m.Run())
}

func memoryParams(content string) memory.AddItemParams {
	return memory.AddItemParams{Type: "note", Title: "Long note", Content: content}
}

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `{
  "memory_items": [
    {"id": "mem-001", "type": "note", "title": "Seeded", "content": "from seed", "tags": ["golang"],
     "created_at": "2025-01-01T00:00:00Z", "updated_at": "2025-01-01T00:00:00Z"}
  ]
}`
	if err := os.WriteFile(path, []byte(seed), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}
