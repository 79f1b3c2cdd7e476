// Package optimizer condenses content to a token budget through an external
// LLM provider.
//
// Optimize never fails: every error path hands the original content back
// together with a Result describing what happened.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/HendryAvila/memvault/internal/llm"
	"github.com/HendryAvila/memvault/internal/optcache"
	"github.com/HendryAvila/memvault/internal/tokens"
)

// Sentinel errors reported in Result.Error.
var (
	ErrClientUnavailable = errors.New("client not initialized")
	ErrRetriesExhausted  = errors.New("optimization failed after 3 attempts")
)

const withinBudgetMessage = "Content already within token budget"

// Config tunes the retry loop.
type Config struct {
	MaxAttempts    int
	BaseBackoff    time.Duration
	AttemptTimeout time.Duration
	// ResponseBuffer is added to the budget to size the provider's
	// output allowance.
	ResponseBuffer int
	Temperature    float64
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseBackoff:    time.Second,
		AttemptTimeout: 30 * time.Second,
		ResponseBuffer: 200,
		Temperature:    0.3,
	}
}

// Result describes one Optimize call.
type Result struct {
	Success          bool     `json:"success"`
	OriginalTokens   int      `json:"original_tokens"`
	OptimizedTokens  int      `json:"optimized_tokens"`
	Cached           bool     `json:"cached"`
	Reduction        string   `json:"reduction"`
	ReductionPercent *float64 `json:"reduction_percent,omitempty"`
	Attempts         int      `json:"attempts,omitempty"`
	Message          string   `json:"message,omitempty"`
	Error            string   `json:"error,omitempty"`
	Fallback         bool     `json:"fallback,omitempty"`
}

// Optimizer condenses content, consulting a shared cache first.
type Optimizer struct {
	completer llm.Completer
	counter   tokens.Counter
	cache     *optcache.Cache
	cfg       Config
	logger    *slog.Logger

	// sleep waits between attempts; swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Optimizer. completer may be nil, in which case every
// over-budget request falls back with ErrClientUnavailable. A nil logger
// discards output.
func New(completer llm.Completer, counter tokens.Counter, cache *optcache.Cache, cfg Config, logger *slog.Logger) *Optimizer {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.ResponseBuffer < 0 {
		cfg.ResponseBuffer = def.ResponseBuffer
	}
	if cache == nil {
		cache = optcache.New()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Optimizer{
		completer: completer,
		counter:   counter,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepContext,
	}
}

// Available reports whether a provider is configured.
func (o *Optimizer) Available() bool {
	return o.completer != nil
}

// Completer returns the configured provider, or nil.
func (o *Optimizer) Completer() llm.Completer {
	return o.completer
}

// CacheStats returns statistics over the shared cache.
func (o *Optimizer) CacheStats() optcache.Stats {
	return o.cache.Stats()
}

// ClearCache drops all cached optimizations.
func (o *Optimizer) ClearCache() {
	o.cache.Clear()
}

// Optimize condenses content to roughly maxTokens tokens. The returned text
// is the original content whenever Result.Success is false.
func (o *Optimizer) Optimize(ctx context.Context, content string, maxTokens int, useCache bool) (string, Result) {
	original := o.counter.Count(content)

	if useCache {
		if hit := o.cache.Get(content, maxTokens); hit.IsSome() {
			cached := hit.UnwrapOr(content)
			optimized := o.counter.Count(cached)
			res := reductionResult(original, optimized)
			res.Cached = true
			o.logger.Debug("optimizer cache hit", "original_tokens", original, "optimized_tokens", optimized)
			return cached, res
		}
	}

	if original <= maxTokens {
		return content, Result{
			Success:         true,
			OriginalTokens:  original,
			OptimizedTokens: original,
			Reduction:       "0%",
			Message:         withinBudgetMessage,
		}
	}

	if o.completer == nil {
		return content, o.fallback(original, 0, ErrClientUnavailable)
	}

	req := llm.Request{
		System:          systemPrompt,
		Prompt:          buildPrompt(content, maxTokens),
		MaxOutputTokens: maxTokens + o.cfg.ResponseBuffer,
		Temperature:     o.cfg.Temperature,
	}

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		text, err := o.attempt(ctx, req)
		if err == nil {
			optimized := o.counter.Count(text)
			if useCache {
				o.cache.Set(content, maxTokens, text, original, optimized)
			}
			res := reductionResult(original, optimized)
			res.Attempts = attempt
			o.logger.Info("content optimized",
				"original_tokens", original,
				"optimized_tokens", optimized,
				"attempts", attempt)
			return text, res
		}

		o.logger.Warn("optimization attempt failed",
			"attempt", attempt,
			"max_attempts", o.cfg.MaxAttempts,
			"retryable", llm.IsRetryable(err),
			"error", err)

		if attempt == o.cfg.MaxAttempts {
			break
		}
		if err := o.sleep(ctx, o.backoff(attempt)); err != nil {
			return content, o.fallback(original, attempt, fmt.Errorf("optimization cancelled after %d attempts: %w", attempt, err))
		}
	}

	return content, o.fallback(original, o.cfg.MaxAttempts, ErrRetriesExhausted)
}

func (o *Optimizer) attempt(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()

	text, err := o.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// backoff returns the wait after the given failed attempt: base * 2^(attempt-1).
func (o *Optimizer) backoff(attempt int) time.Duration {
	return o.cfg.BaseBackoff << (attempt - 1)
}

func (o *Optimizer) fallback(original, attempts int, err error) Result {
	return Result{
		Success:         false,
		OriginalTokens:  original,
		OptimizedTokens: original,
		Reduction:       "0%",
		Attempts:        attempts,
		Error:           err.Error(),
		Fallback:        true,
	}
}

func reductionResult(original, optimized int) Result {
	pct := 0.0
	if original > 0 {
		pct = (1 - float64(optimized)/float64(original)) * 100
	}
	return Result{
		Success:          true,
		OriginalTokens:   original,
		OptimizedTokens:  optimized,
		Reduction:        fmt.Sprintf("%.1f%%", pct),
		ReductionPercent: &pct,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
