package admin

import (
	"archive/tar"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pierrec/lz4/v4"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "songscout.db")
	songsDir := filepath.Join(src, "songs")
	if err := os.MkdirAll(songsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath, []byte("db-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"one.wav": "audio-one",
		"two.m4a": "audio-two",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(songsDir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(t.TempDir(), "backup.tar.lz4")
	var seen []string
	err := Backup(dbPath, songsDir, archive, func(_, _ int64, name string) {
		seen = append(seen, name)
	})
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("progress reported %d entries, want 3: %v", len(seen), seen)
	}

	dst := t.TempDir()
	restoredDB := filepath.Join(dst, "restored.db")
	restoredSongs := filepath.Join(dst, "songs")
	if err := Restore(archive, restoredDB, restoredSongs, nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got, err := os.ReadFile(restoredDB)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "db-bytes" {
		t.Fatalf("db content = %q", got)
	}
	for name, body := range files {
		got, err := os.ReadFile(filepath.Join(restoredSongs, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != body {
			t.Fatalf("%s content = %q, want %q", name, got, body)
		}
	}
}

func TestBackupWritesManifest(t *testing.T) {
	src := t.TempDir()
	dbPath := filepath.Join(src, "songscout.db")
	songsDir := filepath.Join(src, "songs")
	if err := os.MkdirAll(songsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath, []byte("db"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(songsDir, "a.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive := filepath.Join(t.TempDir(), "backup.tar.lz4")
	if err := Backup(dbPath, songsDir, archive, nil); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	f, err := os.Open(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var m *Manifest
	tr := tar.NewReader(lz4.NewReader(f))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if header.Name != manifestName {
			continue
		}
		m = &Manifest{}
		if err := json.NewDecoder(tr).Decode(m); err != nil {
			t.Fatalf("decode manifest: %v", err)
		}
	}
	if m == nil {
		t.Fatal("archive has no manifest entry")
	}
	if m.Entries != 2 {
		t.Errorf("manifest entries = %d, want 2", m.Entries)
	}
	if m.Database != dbPath || m.SongsDir != songsDir {
		t.Errorf("manifest paths = %q/%q, want %q/%q", m.Database, m.SongsDir, dbPath, songsDir)
	}
	if m.CreatedAt.IsZero() {
		t.Error("manifest created_at is zero")
	}
}

func TestBackupMissingDBStillArchivesSongs(t *testing.T) {
	src := t.TempDir()
	songsDir := filepath.Join(src, "songs")
	if err := os.MkdirAll(songsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(songsDir, "a.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive := filepath.Join(t.TempDir(), "backup.tar.lz4")
	if err := Backup(filepath.Join(src, "nope.db"), songsDir, archive, nil); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	dst := t.TempDir()
	if err := Restore(archive, filepath.Join(dst, "db"), filepath.Join(dst, "songs"), nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "songs", "a.wav")); err != nil {
		t.Fatalf("restored song missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "db")); !os.IsNotExist(err) {
		t.Fatal("db file should not exist after restore of db-less archive")
	}
}

func TestRestoreMissingArchive(t *testing.T) {
	err := Restore(filepath.Join(t.TempDir(), "nope.tar.lz4"), "db", "songs", nil)
	if err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestBackupName(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := BackupName(now)
	if got != "songscout-backup-20260314-092653.tar.lz4" {
		t.Fatalf("BackupName = %q", got)
	}
	if !strings.HasSuffix(got, ".tar.lz4") {
		t.Fatal("missing archive suffix")
	}
}
