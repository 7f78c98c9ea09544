package update

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "1.0.1", true},
		{"v1.0.0", "v1.0.1", true},
		{"1.2.0", "1.2.0", false},
		{"2.0.0", "1.9.9", false},
		{"dev", "1.0.0", true},
		{"unknown", "1.0.0", true},
		{"1.0.0", "garbage", false},
	}
	for _, tt := range tests {
		if got := IsNewerVersion(tt.current, tt.latest); got != tt.want {
			t.Errorf("IsNewerVersion(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestCheckAgainstFakeGitHub(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Errorf("missing accept header")
		}
		w.Write([]byte(`{"tag_name": "v1.4.0", "name": "v1.4.0", "html_url": "https://example.com/r"}`))
	}))
	defer ts.Close()

	orig := releaseURL
	releaseURL = ts.URL
	defer func() { releaseURL = orig }()

	result, err := Check("1.2.0")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.UpdateAvailable {
		t.Fatal("expected update available")
	}
	if result.LatestVersion != "1.4.0" {
		t.Fatalf("LatestVersion = %q", result.LatestVersion)
	}
	if result.Release == nil || result.Release.TagName != "v1.4.0" {
		t.Fatalf("release = %+v", result.Release)
	}
}

func TestCheckNoReleases(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	orig := releaseURL
	releaseURL = ts.URL
	defer func() { releaseURL = orig }()

	if _, err := Check("1.0.0"); err == nil {
		t.Fatal("expected error for missing releases")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	entry := &CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   "1.3.0",
		UpdateAvailable: true,
	}
	if err := SaveCache(dir, entry); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}
	got, err := LoadCache(dir)
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got.LatestVersion != "1.3.0" || !got.UpdateAvailable {
		t.Fatalf("got %+v", got)
	}
	if !IsCacheValid(got) {
		t.Fatal("fresh cache should be valid")
	}
}

func TestCacheExpiry(t *testing.T) {
	entry := &CacheEntry{CheckedAt: time.Now().Add(-25 * time.Hour)}
	if IsCacheValid(entry) {
		t.Fatal("day-old cache should be stale")
	}
}

func TestCachedCheckUsesFreshCache(t *testing.T) {
	dir := t.TempDir()
	if err := SaveCache(dir, &CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   "9.9.9",
		UpdateAvailable: true,
	}); err != nil {
		t.Fatal(err)
	}

	// Point the network at a server that always fails; the cache must win.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network hit despite fresh cache")
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()
	orig := releaseURL
	releaseURL = ts.URL
	defer func() { releaseURL = orig }()

	result, err := CachedCheck(dir, "1.0.0")
	if err != nil {
		t.Fatalf("CachedCheck: %v", err)
	}
	if result.LatestVersion != "9.9.9" {
		t.Fatalf("LatestVersion = %q", result.LatestVersion)
	}
}

func TestLoadCacheMissing(t *testing.T) {
	if _, err := LoadCache(t.TempDir()); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
