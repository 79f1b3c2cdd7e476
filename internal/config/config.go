// Package config loads memvault settings.
//
// Sources are applied in order: built-in defaults, an optional YAML or TOML
// file (with ${VAR} expansion), an optional .env file, then the process
// environment. A .env file never overrides variables that are already set.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/HendryAvila/memvault/internal/llm"
	"github.com/HendryAvila/memvault/internal/memory"
	"github.com/HendryAvila/memvault/internal/optimizer"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is loaded when no --env-file is given and it exists.
const DefaultEnvFile = ".env"

// Config holds all memvault configuration.
type Config struct {
	LogLevel  string          `yaml:"log_level" toml:"log_level"`
	LLM       LLMConfig       `yaml:"llm" toml:"llm"`
	Optimizer OptimizerConfig `yaml:"optimizer" toml:"optimizer"`
	Memory    MemoryConfig    `yaml:"memory" toml:"memory"`
	GitHub    GitHubConfig    `yaml:"github" toml:"github"`
}

// LLMConfig selects the summarization provider.
// Provider is "openai" (default, any OpenAI-compatible API) or "anthropic".
type LLMConfig struct {
	Provider        string `yaml:"provider" toml:"provider"`
	APIKey          string `yaml:"api_key" toml:"api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	BaseURL         string `yaml:"base_url" toml:"base_url"`
	Model           string `yaml:"model" toml:"model"`
}

// OptimizerConfig tunes the retry loop and the result cache.
type OptimizerConfig struct {
	DefaultMaxTokens int           `yaml:"default_max_tokens" toml:"default_max_tokens"`
	MaxAttempts      int           `yaml:"max_attempts" toml:"max_attempts"`
	BaseBackoff      time.Duration `yaml:"base_backoff" toml:"base_backoff"`
	AttemptTimeout   time.Duration `yaml:"attempt_timeout" toml:"attempt_timeout"`
	Temperature      float64       `yaml:"temperature" toml:"temperature"`
	CacheTTL         time.Duration `yaml:"cache_ttl" toml:"cache_ttl"`
	CacheMaxEntries  int           `yaml:"cache_max_entries" toml:"cache_max_entries"`
}

// MemoryConfig controls the item store.
type MemoryConfig struct {
	DataDir          string `yaml:"data_dir" toml:"data_dir"`
	MaxSearchResults int    `yaml:"max_search_results" toml:"max_search_results"`
	// SeedFile is an optional JSON document imported at startup.
	SeedFile string `yaml:"seed_file" toml:"seed_file"`
}

// GitHubConfig holds the GitHub API credentials used by the API probe.
type GitHubConfig struct {
	Token   string `yaml:"token" toml:"token"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	opt := optimizer.DefaultConfig()
	mem := memory.DefaultConfig()
	return &Config{
		LogLevel: "warn",
		LLM: LLMConfig{
			Provider: llm.ProviderOpenAI,
		},
		Optimizer: OptimizerConfig{
			DefaultMaxTokens: 1500,
			MaxAttempts:      opt.MaxAttempts,
			BaseBackoff:      opt.BaseBackoff,
			AttemptTimeout:   opt.AttemptTimeout,
			Temperature:      opt.Temperature,
			CacheTTL:         time.Hour,
			CacheMaxEntries:  1000,
		},
		Memory: MemoryConfig{
			DataDir:          mem.DataDir,
			MaxSearchResults: mem.MaxSearchResults,
		},
	}
}

// Resolve builds the effective configuration: defaults, then the config
// file at path (if any), then envFile, then the environment. An empty
// envFile loads DefaultEnvFile when it exists.
func Resolve(path, envFile string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML or TOML config file and expands environment variables.
// The format is chosen by extension. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse config: unsupported format %q", ext)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. An empty path tries
// DefaultEnvFile and silently skips it when missing.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// os.LookupEnv. Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("OPENAI_API_KEY", &cfg.LLM.APIKey)
	str("OPENAI_BASE_URL", &cfg.LLM.BaseURL)
	str("LLM_MODEL", &cfg.LLM.Model)
	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("ANTHROPIC_API_KEY", &cfg.LLM.AnthropicAPIKey)
	str("GITHUB_TOKEN", &cfg.GitHub.Token)
	str("MEMVAULT_DATA_DIR", &cfg.Memory.DataDir)
	str("MEMVAULT_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("MEMVAULT_MAX_TOKENS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Optimizer.DefaultMaxTokens = n
		}
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LLM.Provider) {
	case "", llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	o := c.Optimizer
	if o.DefaultMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("optimizer.default_max_tokens must be positive, got %d", o.DefaultMaxTokens))
	}
	if o.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("optimizer.max_attempts must be positive, got %d", o.MaxAttempts))
	}
	if o.BaseBackoff < 0 {
		errs = append(errs, fmt.Errorf("optimizer.base_backoff must not be negative, got %s", o.BaseBackoff))
	}
	if o.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("optimizer.attempt_timeout must be positive, got %s", o.AttemptTimeout))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("optimizer.temperature must be within [0, 2], got %g", o.Temperature))
	}
	if o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("optimizer.cache_ttl must be positive, got %s", o.CacheTTL))
	}
	if o.CacheMaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("optimizer.cache_max_entries must be positive, got %d", o.CacheMaxEntries))
	}

	if strings.TrimSpace(c.Memory.DataDir) == "" {
		errs = append(errs, errors.New("memory.data_dir must not be empty"))
	}
	if c.Memory.MaxSearchResults <= 0 {
		errs = append(errs, fmt.Errorf("memory.max_search_results must be positive, got %d", c.Memory.MaxSearchResults))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LLMClient returns the provider settings for llm.New. The API key is
// picked by provider.
func (c *Config) LLMClient() llm.Config {
	provider := strings.ToLower(c.LLM.Provider)
	key := c.LLM.APIKey
	if provider == llm.ProviderAnthropic {
		key = c.LLM.AnthropicAPIKey
	}
	return llm.Config{
		Provider: provider,
		APIKey:   key,
		BaseURL:  c.LLM.BaseURL,
		Model:    c.LLM.Model,
	}
}

// OptimizerSettings returns the retry settings for optimizer.New.
func (c *Config) OptimizerSettings() optimizer.Config {
	cfg := optimizer.DefaultConfig()
	cfg.MaxAttempts = c.Optimizer.MaxAttempts
	cfg.BaseBackoff = c.Optimizer.BaseBackoff
	cfg.AttemptTimeout = c.Optimizer.AttemptTimeout
	cfg.Temperature = c.Optimizer.Temperature
	return cfg
}

// MemorySettings returns the store settings for memory.New.
func (c *Config) MemorySettings() memory.Config {
	return memory.Config{
		DataDir:          c.Memory.DataDir,
		MaxSearchResults: c.Memory.MaxSearchResults,
	}
}

// SlogLevel returns the configured log level. Invalid values map to warn.
func (c *Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("log_level: unknown level %q", s)
}
