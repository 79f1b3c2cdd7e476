// Package memory implements the persistent memory store for memvault.
//
// Items live in SQLite alongside two small catalogs (tags and types) that
// describe how items may be categorized. Deletes are soft by default so
// that Reset can bring items back.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Sentinel errors.
var (
	ErrNotFound    = errors.New("memory not found")
	ErrInvalidType = errors.New("invalid memory type")
)

// DefaultProject is assigned to items saved without a project.
const DefaultProject = "general"

const idPrefix = "mem-"

// ─── Types ───────────────────────────────────────────────────────────────────

// Item is a single stored memory: a note, PRD, snippet, decision and so on.
type Item struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Project   string   `json:"project"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// CatalogEntry is a named tag or type with a human description.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SearchResult pairs an item with its relevance score.
type SearchResult struct {
	Item
	Relevance int `json:"relevance"`
}

// SearchOptions holds filters for Search. Matching is case-insensitive.
type SearchOptions struct {
	Tag     string `json:"tag,omitempty"`
	Type    string `json:"type,omitempty"`
	Project string `json:"project,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// AddItemParams holds the input for creating an item.
type AddItemParams struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
	Project string   `json:"project,omitempty"`
}

// UpdateItemParams holds partial update fields. Nil fields are left alone.
type UpdateItemParams struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Project *string   `json:"project,omitempty"`
}

// Count is a name with the number of live items carrying it.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats holds aggregate item statistics over live items.
type Stats struct {
	TotalItems int     `json:"total_items"`
	ByType     []Count `json:"by_type"`
	ByTag      []Count `json:"by_tag"`
	ByProject  []Count `json:"by_project"`
}

// SeedData is the JSON document accepted by ImportSeed.
type SeedData struct {
	Items []Item         `json:"memory_items"`
	Tags  []CatalogEntry `json:"tags"`
	Types []CatalogEntry `json:"types"`
}

// ImportResult holds counts of imported records.
type ImportResult struct {
	ItemsImported int `json:"items_imported"`
	TagsImported  int `json:"tags_imported"`
	TypesImported int `json:"types_imported"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir          string
	MaxSearchResults int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:          filepath.Join(home, ".memvault"),
		MaxSearchResults: 10,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory store backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config

	// idMu serializes ID allocation with the insert that uses it.
	idMu sync.Mutex
}

// New creates a Store. It creates the data directory if needed, opens
// SQLite with WAL mode, runs migrations and seeds the default catalogs.
func New(cfg Config) (*Store, error) {
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 10
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "memvault.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '[]',
			project    TEXT NOT NULL DEFAULT 'general',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_items_type    ON items(type);
		CREATE INDEX IF NOT EXISTS idx_items_project ON items(project);
		CREATE INDEX IF NOT EXISTS idx_items_deleted ON items(deleted_at);

		CREATE TABLE IF NOT EXISTS tags (
			name        TEXT PRIMARY KEY,
			description TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS types (
			name        TEXT PRIMARY KEY,
			description TEXT NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	for _, t := range DefaultTypes {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO types (name, description) VALUES (?, ?)`, t.Name, t.Description); err != nil {
			return err
		}
	}
	for _, t := range DefaultTags {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO tags (name, description) VALUES (?, ?)`, t.Name, t.Description); err != nil {
			return err
		}
	}
	return nil
}

// ─── Items ───────────────────────────────────────────────────────────────────

// AddItem validates the type, allocates the next sequential ID and stores
// the item.
func (s *Store) AddItem(ctx context.Context, p AddItemParams) (*Item, error) {
	typ := strings.ToLower(strings.TrimSpace(p.Type))
	if err := s.checkType(ctx, typ); err != nil {
		return nil, err
	}

	project := strings.TrimSpace(p.Project)
	if project == "" {
		project = DefaultProject
	}

	tagsJSON, err := encodeTags(p.Tags)
	if err != nil {
		return nil, err
	}

	s.idMu.Lock()
	defer s.idMu.Unlock()

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := formatTime(timeNow())
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, content, tags, project, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, typ, p.Title, p.Content, tagsJSON, project, now, now,
	); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	return s.GetItem(ctx, id)
}

// GetItem returns a live item by ID. The lookup is case-insensitive.
// It returns ErrNotFound for unknown or soft-deleted items.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, title, content, tags, project, created_at, updated_at
		 FROM items WHERE lower(id) = lower(?) AND deleted_at IS NULL`,
		strings.TrimSpace(id),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns all live items in creation order.
func (s *Store) ListItems(ctx context.Context) ([]Item, error) {
	return s.queryItems(ctx,
		`SELECT id, type, title, content, tags, project, created_at, updated_at
		 FROM items WHERE deleted_at IS NULL
		 ORDER BY created_at, id`)
}

// IDs returns up to limit live item IDs in creation order.
func (s *Store) IDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM items WHERE deleted_at IS NULL ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateItem partially updates a live item and bumps updated_at.
func (s *Store) UpdateItem(ctx context.Context, id string, p UpdateItemParams) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Content != nil {
		item.Content = *p.Content
	}
	if p.Tags != nil {
		item.Tags = *p.Tags
	}
	if p.Project != nil {
		item.Project = strings.TrimSpace(*p.Project)
		if item.Project == "" {
			item.Project = DefaultProject
		}
	}

	tagsJSON, err := encodeTags(item.Tags)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE items
		 SET title = ?,
		     content = ?,
		     tags = ?,
		     project = ?,
		     updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		item.Title, item.Content, tagsJSON, item.Project, formatTime(timeNow()), item.ID,
	); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	return s.GetItem(ctx, item.ID)
}

// DeleteItem soft-deletes (or hard-deletes) a live item and returns it as
// it was before deletion.
func (s *Store) DeleteItem(ctx context.Context, id string, hardDelete bool) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if hardDelete {
		_, err = s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, item.ID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE items SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
			formatTime(timeNow()), item.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return item, nil
}

// Reset restores every soft-deleted item and returns how many came back.
func (s *Store) Reset(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE items SET deleted_at = NULL WHERE deleted_at IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Count returns the number of live items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE deleted_at IS NULL`).Scan(&n)
	return n, err
}

// ─── Listing ─────────────────────────────────────────────────────────────────

// ListByTag returns live items carrying tag, compared case-insensitively.
func (s *Store) ListByTag(ctx context.Context, tag string) ([]Item, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Item
	for _, it := range items {
		if hasTag(it.Tags, tag) {
			matches = append(matches, it)
		}
	}
	return matches, nil
}

// ListByType returns live items of the given type. Unknown types yield
// ErrInvalidType.
func (s *Store) ListByType(ctx context.Context, typ string) ([]Item, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if err := s.checkType(ctx, typ); err != nil {
		return nil, err
	}
	return s.queryItems(ctx,
		`SELECT id, type, title, content, tags, project, created_at, updated_at
		 FROM items WHERE type = ? AND deleted_at IS NULL
		 ORDER BY created_at, id`, typ)
}

// UsedTags returns the distinct tags on live items, sorted.
func (s *Store) UsedTags(ctx context.Context) ([]string, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, it := range items {
		for _, t := range it.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ─── Search ──────────────────────────────────────────────────────────────────

// Search scores live items against term and returns the best matches,
// highest relevance first. A full-term hit in the title scores 10, in the
// content 5; each word of the term adds 3 for a title hit and 1 for a
// content hit. Items scoring zero are dropped.
func (s *Store) Search(ctx context.Context, term string, opts SearchOptions) ([]SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 || limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var results []SearchResult
	for _, it := range items {
		if opts.Tag != "" && !hasTag(it.Tags, opts.Tag) {
			continue
		}
		if opts.Type != "" && !strings.EqualFold(it.Type, opts.Type) {
			continue
		}
		if opts.Project != "" && !strings.EqualFold(it.Project, opts.Project) {
			continue
		}

		if score := Relevance(term, it.Title, it.Content); score > 0 {
			results = append(results, SearchResult{Item: it, Relevance: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Relevance scores a title and content against a search term.
func Relevance(term, title, content string) int {
	term = strings.ToLower(term)
	title = strings.ToLower(title)
	content = strings.ToLower(content)

	score := 0
	if strings.Contains(title, term) {
		score += 10
	}
	if strings.Contains(content, term) {
		score += 5
	}
	for _, word := range strings.Fields(term) {
		if strings.Contains(title, word) {
			score += 3
		}
		if strings.Contains(content, word) {
			score += 1
		}
	}
	return score
}

// ─── Catalogs ────────────────────────────────────────────────────────────────

// Tags returns the tag catalog sorted by name.
func (s *Store) Tags(ctx context.Context) ([]CatalogEntry, error) {
	return s.queryCatalog(ctx, `SELECT name, description FROM tags ORDER BY name`)
}

// Types returns the type catalog sorted by name.
func (s *Store) Types(ctx context.Context) ([]CatalogEntry, error) {
	return s.queryCatalog(ctx, `SELECT name, description FROM types ORDER BY name`)
}

func (s *Store) checkType(ctx context.Context, typ string) error {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM types WHERE name = ?`, typ).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	return err
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats counts live items by type (alphabetical), and by tag and project
// (most used first, ties alphabetical).
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	items, err := s.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	byType := map[string]int{}
	byTag := map[string]int{}
	byProject := map[string]int{}
	for _, it := range items {
		byType[it.Type]++
		byProject[it.Project]++
		for _, t := range it.Tags {
			byTag[t]++
		}
	}

	stats := &Stats{
		TotalItems: len(items),
		ByType:     toCounts(byType),
		ByTag:      toCounts(byTag),
		ByProject:  toCounts(byProject),
	}
	sort.Slice(stats.ByType, func(i, j int) bool { return stats.ByType[i].Name < stats.ByType[j].Name })
	sortByCount(stats.ByTag)
	sortByCount(stats.ByProject)
	return stats, nil
}

// ─── Seed import ─────────────────────────────────────────────────────────────

// ImportSeedFile reads a SeedData JSON document from path and imports it.
func (s *Store) ImportSeedFile(ctx context.Context, path string) (*ImportResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return s.Import(ctx, &data)
}

// Import inserts catalog entries and items that do not exist yet. Existing
// rows, including soft-deleted items, are left untouched.
func (s *Store) Import(ctx context.Context, data *SeedData) (*ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("import: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &ImportResult{}

	for _, t := range data.Types {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO types (name, description) VALUES (?, ?)`,
			strings.ToLower(t.Name), t.Description)
		if err != nil {
			return nil, fmt.Errorf("import type %q: %w", t.Name, err)
		}
		result.TypesImported += affected(res)
	}

	for _, t := range data.Tags {
		res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name, description) VALUES (?, ?)`,
			t.Name, t.Description)
		if err != nil {
			return nil, fmt.Errorf("import tag %q: %w", t.Name, err)
		}
		result.TagsImported += affected(res)
	}

	now := formatTime(timeNow())
	for _, it := range data.Items {
		if !strings.HasPrefix(it.ID, idPrefix) {
			return nil, fmt.Errorf("import item %q: id must start with %q", it.ID, idPrefix)
		}
		tagsJSON, err := encodeTags(it.Tags)
		if err != nil {
			return nil, err
		}
		project := it.Project
		if project == "" {
			project = DefaultProject
		}
		created, updated := it.CreatedAt, it.UpdatedAt
		if created == "" {
			created = now
		}
		if updated == "" {
			updated = created
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO items (id, type, title, content, tags, project, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, strings.ToLower(it.Type), it.Title, it.Content, tagsJSON, project, created, updated,
		)
		if err != nil {
			return nil, fmt.Errorf("import item %q: %w", it.ID, err)
		}
		result.ItemsImported += affected(res)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("import: commit: %w", err)
	}
	return result, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// nextID returns max(existing number) + 1 over every row, deleted or not,
// so IDs are never reused. Must be called with idMu held.
func (s *Store) nextID(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM items WHERE id LIKE 'mem-%'`)
	if err != nil {
		return "", fmt.Errorf("next id: %w", err)
	}
	defer func() { _ = rows.Close() }()

	maxNum := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		n, err := strconv.Atoi(strings.TrimPrefix(id, idPrefix))
		if err != nil {
			continue
		}
		if n > maxNum {
			maxNum = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", idPrefix, maxNum+1), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var it Item
	var tagsJSON string
	if err := row.Scan(&it.ID, &it.Type, &it.Title, &it.Content, &tagsJSON,
		&it.Project, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &it.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", it.ID, err)
	}
	if it.Tags == nil {
		it.Tags = []string{}
	}
	return &it, nil
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *it)
	}
	return results, rows.Err()
}

func (s *Store) queryCatalog(ctx context.Context, query string) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Name, &e.Description); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func encodeTags(tags []string) (string, error) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func toCounts(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for name, n := range m {
		counts = append(counts, Count{Name: name, Count: n})
	}
	return counts
}

func sortByCount(counts []Count) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Truncate shortens a string to max bytes with ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
