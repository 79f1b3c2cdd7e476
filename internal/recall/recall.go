// Package recall retrieves stored memories condensed to a token budget.
package recall

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/optimizer"
)

// DefaultMaxTokens is the budget used when the caller gives none.
const DefaultMaxTokens = 1500

// availableIDsLimit caps the IDs suggested on a miss.
const availableIDsLimit = 5

// Lookup finds memory items.
type Lookup interface {
	GetItem(ctx context.Context, id string) (*memory.Item, error)
	IDs(ctx context.Context, limit int) ([]string, error)
}

// Optimizer condenses content to a budget.
type Optimizer interface {
	Optimize(ctx context.Context, content string, maxTokens int, useCache bool) (string, optimizer.Result)
}

// Response is the JSON body returned to MCP callers.
type Response struct {
	Success      bool              `json:"success"`
	Memory       *memory.Item      `json:"memory,omitempty"`
	Optimization *optimizer.Result `json:"optimization,omitempty"`
	Error        string            `json:"error,omitempty"`
	AvailableIDs []string          `json:"available_ids,omitempty"`
}

// Service joins the store and the optimizer.
type Service struct {
	lookup           Lookup
	optimizer        Optimizer
	defaultMaxTokens int
}

// NewService creates a Service using DefaultMaxTokens as its budget.
func NewService(lookup Lookup, opt Optimizer) *Service {
	return &Service{lookup: lookup, optimizer: opt, defaultMaxTokens: DefaultMaxTokens}
}

// SetDefaultMaxTokens changes the budget used when callers give none.
// Non-positive values are ignored.
func (s *Service) SetDefaultMaxTokens(n int) {
	if n > 0 {
		s.defaultMaxTokens = n
	}
}

// DefaultMaxTokens returns the budget used when callers give none.
func (s *Service) DefaultMaxTokens() int {
	return s.defaultMaxTokens
}

// GetOptimized looks up an item and returns a copy whose content has been
// condensed to maxTokens. The stored item is never modified. A missing item
// short-circuits before any optimization.
func (s *Service) GetOptimized(ctx context.Context, id string, maxTokens int, useCache bool) Response {
	if maxTokens <= 0 {
		maxTokens = s.defaultMaxTokens
	}

	item, err := s.lookup.GetItem(ctx, id)
	if errors.Is(err, memory.ErrNotFound) {
		ids, _ := s.lookup.IDs(ctx, availableIDsLimit)
		if ids == nil {
			ids = []string{}
		}
		return Response{
			Success:      false,
			Error:        fmt.Sprintf("Memory '%s' not found", id),
			AvailableIDs: ids,
		}
	}
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("lookup %s: %v", id, err)}
	}

	text, result := s.optimizer.Optimize(ctx, item.Content, maxTokens, useCache)

	out := *item
	out.Tags = append([]string(nil), item.Tags...)
	out.Content = text

	return Response{
		Success:      true,
		Memory:       &out,
		Optimization: &result,
	}
}
