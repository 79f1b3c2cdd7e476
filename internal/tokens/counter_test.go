package tokens

import (
	"strings"
	"testing"
)

func TestEstimatingCounter_Count(t *testing.T) {
	c := NewEstimatingCounter()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single char rounds down", "a", 0},
		{"two chars rounds up", "ab", 1},
		{"four chars", "test", 1},
		{"hello world", "Hello World", 3},
		{"multibyte counted as runes", "日本語テキスト", 2},
		{"long text", strings.Repeat("a", 4000), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Count(tt.text); got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimatingCounter_ZeroRatioUsesDefault(t *testing.T) {
	c := &EstimatingCounter{}
	if got := c.Count("testtest"); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestEstimatingCounter_FitsInLimit(t *testing.T) {
	c := NewEstimatingCounter()
	text := strings.Repeat("x", 400) // 100 tokens

	if !c.FitsInLimit(text, 100) {
		t.Error("100 tokens should fit in a limit of 100")
	}
	if c.FitsInLimit(text, 99) {
		t.Error("100 tokens should not fit in a limit of 99")
	}
}

// The encoding is downloaded on first use; skip on hosts without network
// access or a TIKTOKEN_CACHE_DIR.
func newTiktokenOrSkip(t *testing.T) *TiktokenCounter {
	t.Helper()
	c, err := NewTiktokenCounter("")
	if err != nil {
		t.Skipf("cl100k_base unavailable: %v", err)
	}
	return c
}

func TestTiktokenCounter_Count(t *testing.T) {
	c := newTiktokenOrSkip(t)

	if c.Encoding() != DefaultEncoding {
		t.Errorf("Encoding() = %q, want %q", c.Encoding(), DefaultEncoding)
	}
	if got := c.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}
	if got := c.Count("hello world"); got != 2 {
		t.Errorf("Count(\"hello world\") = %d, want 2", got)
	}
}

func TestTiktokenCounter_Deterministic(t *testing.T) {
	c := newTiktokenOrSkip(t)
	text := "kubectl apply -f deploy/k8s/api.yaml --namespace=prod"

	first := c.Count(text)
	for i := 0; i < 5; i++ {
		if got := c.Count(text); got != first {
			t.Fatalf("Count changed between calls: %d then %d", first, got)
		}
	}
}

func TestNewDefault_NeverNil(t *testing.T) {
	c, _ := NewDefault()
	if c == nil {
		t.Fatal("NewDefault returned a nil Counter")
	}
	if c.Count("") != 0 {
		t.Error("empty text should count as zero tokens")
	}
}
