// Package ghapi is a small GitHub REST client: a token connectivity probe
// and a latest-release lookup used for update checks.
package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public GitHub API.
	DefaultBaseURL = "https://api.github.com"

	// Repo is the repository queried for releases.
	Repo = "HendryAvila/memvault"

	defaultTimeout = 10 * time.Second
)

// ErrNoToken is returned by Ping when no token is configured.
var ErrNoToken = errors.New("GitHub token not configured")

// Config configures a Client.
type Config struct {
	Token     string
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the GitHub API.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
}

// New creates a Client. Empty fields get defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "memvault"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   baseURL,
		token:     cfg.Token,
		userAgent: ua,
		http:      &http.Client{Timeout: timeout},
	}
}

// HasToken reports whether a token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// User is the subset of GET /user we read.
type User struct {
	Login string `json:"login"`
}

// Release holds the relevant fields from a GitHub release.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Ping checks the token against GET /user and returns "Connected as: <login>".
func (c *Client) Ping(ctx context.Context) (string, error) {
	if !c.HasToken() {
		return "", ErrNoToken
	}

	var user User
	if err := c.get(ctx, "/user", &user); err != nil {
		return "", fmt.Errorf("ping: %w", err)
	}
	return "Connected as: " + user.Login, nil
}

// LatestRelease fetches the newest published release of Repo.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	var rel Release
	if err := c.get(ctx, "/repos/"+Repo+"/releases/latest", &rel); err != nil {
		return nil, fmt.Errorf("latest release: %w", err)
	}
	return &rel, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GitHub API returned %d", e.StatusCode)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
