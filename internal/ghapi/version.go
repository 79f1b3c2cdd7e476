package ghapi

import (
	"context"
	"strings"
)

// UpdateResult is returned by CheckVersion.
type UpdateResult struct {
	// CurrentVersion is the running version (e.g. "0.2.0").
	CurrentVersion string `json:"current_version"`
	// LatestVersion is the newest release (e.g. "0.3.0").
	LatestVersion string `json:"latest_version,omitempty"`
	// UpdateAvailable is true when latest > current.
	UpdateAvailable bool `json:"update_available"`
	// ReleaseURL is the GitHub page for the release.
	ReleaseURL string `json:"release_url,omitempty"`
}

// CheckVersion compares currentVersion with the latest release. Lookup
// failures are swallowed: the result then only carries CurrentVersion.
func (c *Client) CheckVersion(ctx context.Context, currentVersion string) *UpdateResult {
	result := &UpdateResult{CurrentVersion: normalizeVersion(currentVersion)}

	rel, err := c.LatestRelease(ctx)
	if err != nil {
		return result
	}

	result.LatestVersion = normalizeVersion(rel.TagName)
	result.ReleaseURL = rel.HTMLURL
	result.UpdateAvailable = isNewer(result.CurrentVersion, result.LatestVersion)
	return result
}

// normalizeVersion strips the leading "v" from version strings.
func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer reports whether latest is a higher semver than current.
// Parts beyond major.minor.patch are ignored.
func isNewer(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}

	currentParts := strings.Split(current, ".")
	latestParts := strings.Split(latest, ".")
	for len(currentParts) < 3 {
		currentParts = append(currentParts, "0")
	}
	for len(latestParts) < 3 {
		latestParts = append(latestParts, "0")
	}

	for i := 0; i < 3; i++ {
		c := leadingInt(currentParts[i])
		l := leadingInt(latestParts[i])
		if l != c {
			return l > c
		}
	}
	return false
}

// leadingInt parses the leading digits of s, so "3-rc1" is 3.
func leadingInt(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			break
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
