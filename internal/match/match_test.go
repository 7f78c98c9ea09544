package match

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/songscout/songscout/internal/fingerprint"
	"github.com/songscout/songscout/internal/store"
	"github.com/songscout/songscout/internal/wav"
)

func TestAnalyzeRelativeTiming(t *testing.T) {
	// Song 1: perfectly aligned pairs, all deltas agree.
	// Song 2: wildly different deltas, nothing agrees.
	matches := map[uint32][][2]uint32{
		1: {{0, 1000}, {100, 1100}, {200, 1200}},
		2: {{0, 1000}, {100, 5000}, {200, 9000}},
	}
	scores := analyzeRelativeTiming(matches)
	if scores[1] != 3 {
		t.Errorf("song 1 score = %v, want 3", scores[1])
	}
	if scores[2] != 0 {
		t.Errorf("song 2 score = %v, want 0", scores[2])
	}
}

func TestAnalyzeRelativeTimingTolerance(t *testing.T) {
	// Deltas differing by 99ms are within tolerance, 100ms are not.
	within := map[uint32][][2]uint32{1: {{0, 0}, {100, 199}}}
	if got := analyzeRelativeTiming(within)[1]; got != 1 {
		t.Errorf("99ms drift should count, score = %v", got)
	}
	outside := map[uint32][][2]uint32{1: {{0, 0}, {100, 200}}}
	if got := analyzeRelativeTiming(outside)[1]; got != 0 {
		t.Errorf("100ms drift should not count, score = %v", got)
	}
}

// endToEnd registers a synthetic song and verifies the same audio matches it
// with the best score.
func TestFindMatchesEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping fingerprint round trip in short mode")
	}

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "match.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	const rate = 44100
	const seconds = 3
	samples := makeTone(rate*seconds, rate, 440, 880, 1320)

	songID, err := db.RegisterSong(ctx, "Test Tone", "Oscillator", "tone440")
	if err != nil {
		t.Fatal(err)
	}

	spectro, err := fingerprint.Spectrogram(samples, rate)
	if err != nil {
		t.Fatal(err)
	}
	peaks := fingerprint.ExtractPeaks(spectro, seconds)
	fps := fingerprint.Fingerprint(peaks, songID)
	if err := db.StoreFingerprints(ctx, fps); err != nil {
		t.Fatal(err)
	}

	matches, _, err := FindMatches(ctx, db, samples, seconds, rate)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no matches for identical audio")
	}
	if matches[0].SongID != songID {
		t.Errorf("best match = %d, want %d", matches[0].SongID, songID)
	}
	if matches[0].Score <= 0 {
		t.Errorf("best match score = %v, want > 0", matches[0].Score)
	}
	if matches[0].SongTitle != "Test Tone" {
		t.Errorf("best match title = %q", matches[0].SongTitle)
	}
}

func TestFindMatchesForFileMissing(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "m.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, _, err := FindMatchesForFile(context.Background(), db, "/does/not/exist.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFindMatchesForFile(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "m.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	const rate = 44100
	samples := makeTone(rate, rate, 440)
	raw, err := wav.FloatsToBytes(samples, 16)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "probe.wav")
	if err := wav.WriteFile(path, raw, rate, 1, 16); err != nil {
		t.Fatal(err)
	}

	// Empty index: should complete without error and return no matches.
	matches, _, err := FindMatchesForFile(context.Background(), db, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches against empty index, got %d", len(matches))
	}
}

func makeTone(n, rate int, freqs ...float64) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		var v float64
		for _, f := range freqs {
			v += math.Sin(2 * math.Pi * f * float64(i) / float64(rate))
		}
		samples[i] = v / float64(len(freqs))
	}
	return samples
}
