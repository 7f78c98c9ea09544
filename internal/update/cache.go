package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = ".update-check"
	cacheDuration = 24 * time.Hour
)

// CacheEntry stores the last update check result.
type CacheEntry struct {
	CheckedAt       time.Time `json:"checked_at"`
	LatestVersion   string    `json:"latest_version"`
	UpdateAvailable bool      `json:"update_available"`
}

// CachePath returns the path to the cache file under the songscout home.
func CachePath(homeDir string) string {
	return filepath.Join(homeDir, cacheFileName)
}

// LoadCache loads the cached update check result.
func LoadCache(homeDir string) (*CacheEntry, error) {
	data, err := os.ReadFile(CachePath(homeDir))
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache saves the update check result.
func SaveCache(homeDir string, entry *CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(CachePath(homeDir), data, 0o644)
}

// IsCacheValid returns true if the cache is fresh.
func IsCacheValid(entry *CacheEntry) bool {
	return time.Since(entry.CheckedAt) < cacheDuration
}

// CachedCheck returns the cached result when fresh, otherwise performs a
// network check and refreshes the cache.
func CachedCheck(homeDir, currentVersion string) (*CheckResult, error) {
	if entry, err := LoadCache(homeDir); err == nil && IsCacheValid(entry) {
		return &CheckResult{
			CurrentVersion:  currentVersion,
			LatestVersion:   entry.LatestVersion,
			UpdateAvailable: entry.UpdateAvailable,
		}, nil
	}

	result, err := Check(currentVersion)
	if err != nil {
		return nil, err
	}
	_ = SaveCache(homeDir, &CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   result.LatestVersion,
		UpdateAvailable: result.UpdateAvailable,
	})
	return result, nil
}
