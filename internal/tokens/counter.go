// Package tokens counts tokens the way the optimizer budgets them.
//
// TiktokenCounter uses the cl100k_base BPE encoding, a close approximation
// for GPT-4, DeepSeek and Claude tokenizers. EstimatingCounter is the
// dependency-free fallback used when the encoding cannot be loaded
// (offline hosts without a tiktoken cache).
package tokens

import (
	"fmt"
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by TiktokenCounter.
const DefaultEncoding = "cl100k_base"

// DefaultCharsPerToken is the character-to-token ratio used by
// EstimatingCounter.
const DefaultCharsPerToken = 4.0

// Counter counts tokens in text. Implementations are pure and deterministic
// for a fixed configuration.
type Counter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// FitsInLimit reports whether text is at most limit tokens.
	FitsInLimit(text string, limit int) bool
}

// TiktokenCounter counts tokens with a tiktoken BPE encoding.
type TiktokenCounter struct {
	enc  *tiktoken.Tiktoken
	name string
}

// NewTiktokenCounter loads the named encoding. An empty name selects
// DefaultEncoding.
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: load encoding %q: %w", encoding, err)
	}
	return &TiktokenCounter{enc: enc, name: encoding}, nil
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// FitsInLimit reports whether text is at most limit tokens.
func (c *TiktokenCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// Encoding returns the encoding name.
func (c *TiktokenCounter) Encoding() string {
	return c.name
}

// EstimatingCounter approximates token counts from the rune count.
type EstimatingCounter struct {
	CharsPerToken float64
}

// NewEstimatingCounter returns an EstimatingCounter with the default ratio.
func NewEstimatingCounter() *EstimatingCounter {
	return &EstimatingCounter{CharsPerToken: DefaultCharsPerToken}
}

// Count estimates the number of tokens in text, rounded to nearest.
func (c *EstimatingCounter) Count(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	n := float64(utf8.RuneCountInString(text)) / ratio
	return int(n + 0.5)
}

// FitsInLimit reports whether text is at most limit tokens.
func (c *EstimatingCounter) FitsInLimit(text string, limit int) bool {
	return c.Count(text) <= limit
}

// NewDefault returns a TiktokenCounter for DefaultEncoding, or an
// EstimatingCounter plus the load error when the encoding is unavailable.
// The returned Counter is never nil.
func NewDefault() (Counter, error) {
	c, err := NewTiktokenCounter(DefaultEncoding)
	if err != nil {
		return NewEstimatingCounter(), err
	}
	return c, nil
}
