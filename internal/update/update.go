// Package update checks GitHub for newer songscout releases. Results are
// cached on disk so routine commands do not hit the network on every run.
package update

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	latestReleaseURL = "https://api.github.com/repos/songscout/songscout/releases/latest"
	httpTimeout      = 30 * time.Second
)

// releaseURL is swapped out in tests.
var releaseURL = latestReleaseURL

// Release represents a GitHub release.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// CheckResult holds the result of an update check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	Release         *Release
}

// FetchLatestRelease gets the latest release from GitHub.
func FetchLatestRelease() (*Release, error) {
	client := &http.Client{Timeout: httpTimeout}

	req, err := http.NewRequest("GET", releaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "songscout")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no releases found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API error: %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release: %w", err)
	}
	return &release, nil
}

// IsNewerVersion returns true if latest is newer than current. Dev and
// unknown builds always report an available update.
func IsNewerVersion(current, latest string) bool {
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	if !semver.IsValid(current) {
		return true
	}
	if !semver.IsValid(latest) {
		return false
	}
	return semver.Compare(latest, current) > 0
}

// Check compares the current version against the latest GitHub release.
func Check(currentVersion string) (*CheckResult, error) {
	release, err := FetchLatestRelease()
	if err != nil {
		return nil, err
	}
	return &CheckResult{
		CurrentVersion:  strings.TrimPrefix(currentVersion, "v"),
		LatestVersion:   strings.TrimPrefix(release.TagName, "v"),
		UpdateAvailable: IsNewerVersion(currentVersion, release.TagName),
		Release:         release,
	}, nil
}
