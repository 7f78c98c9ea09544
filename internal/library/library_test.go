package library

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/songscout/songscout/internal/fingerprint"
	"github.com/songscout/songscout/internal/store"
	"github.com/songscout/songscout/internal/wav"
)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.OpenSQLite(filepath.Join(dir, "lib.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	songsDir := filepath.Join(dir, "songs")
	if err := os.MkdirAll(songsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	return New(db, songsDir, filepath.Join(dir, "tmp"), nil), db
}

// fingerprintFailStore registers songs but rejects fingerprint storage,
// recording any rollback deletes.
type fingerprintFailStore struct {
	store.Store
	registered uint32
	deleted    []uint32
}

func (f *fingerprintFailStore) RegisterSong(ctx context.Context, title, artist, ytID string) (uint32, error) {
	f.registered = 77
	return f.registered, nil
}

func (f *fingerprintFailStore) StoreFingerprints(ctx context.Context, fps map[uint32]fingerprint.Couple) error {
	return errors.New("disk full")
}

func (f *fingerprintFailStore) DeleteSongByID(ctx context.Context, songID uint32) error {
	f.deleted = append(f.deleted, songID)
	return nil
}

// writeSineWAV writes one second of a 440 Hz mono tone.
func writeSineWAV(t *testing.T, path string) {
	t.Helper()
	samples := make([]float64, 44100)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	data, err := wav.FloatsToBytes(samples, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.WriteFile(path, data, 44100, 1, 16); err != nil {
		t.Fatal(err)
	}
}

func TestProcessAndSaveSongRollsBackOnFingerprintFailure(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	writeSineWAV(t, wavPath)

	db := &fingerprintFailStore{}
	svc := New(db, filepath.Join(dir, "songs"), filepath.Join(dir, "tmp"), nil)
	svc.convert = func(path string, channels int) (string, error) { return path, nil }

	err := svc.ProcessAndSaveSong(context.Background(), wavPath, "Tone", "Sine", "yt77")
	if err == nil {
		t.Fatal("expected error when fingerprint storage fails")
	}
	if len(db.deleted) != 1 || db.deleted[0] != db.registered {
		t.Fatalf("deleted = %v, want rollback of song %d", db.deleted, db.registered)
	}
}

func TestEraseRemovesSongsAndFiles(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	if _, err := db.RegisterSong(ctx, "Song", "Artist", "yt1"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.wav", "b.m4a", "keep.txt"} {
		if err := os.WriteFile(filepath.Join(svc.SongsDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.Erase(ctx); err != nil {
		t.Fatalf("Erase: %v", err)
	}

	n, err := db.TotalSongs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("TotalSongs = %d after erase", n)
	}

	for _, name := range []string{"a.wav", "b.m4a"} {
		if _, err := os.Stat(filepath.Join(svc.SongsDir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should be deleted", name)
		}
	}
	// Non-audio files stay.
	if _, err := os.Stat(filepath.Join(svc.SongsDir, "keep.txt")); err != nil {
		t.Errorf("keep.txt should survive erase: %v", err)
	}
}

func TestSavePathMissing(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.SavePath(context.Background(), "/does/not/exist", false); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestProcessRecordingBadBase64(t *testing.T) {
	rec := &RecordData{Audio: "!!!not-base64!!!", SampleRate: 44100, Channels: 1, SampleSize: 16}
	if _, err := ProcessRecording(rec, t.TempDir(), t.TempDir(), false); err == nil {
		t.Error("expected error for invalid base64 audio")
	}
}

func TestProcessRecordingBadFormat(t *testing.T) {
	// Valid base64 but zero sample rate: WAV write must reject it.
	rec := &RecordData{Audio: "AAAA", SampleRate: 0, Channels: 1, SampleSize: 16}
	if _, err := ProcessRecording(rec, t.TempDir(), t.TempDir(), false); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
