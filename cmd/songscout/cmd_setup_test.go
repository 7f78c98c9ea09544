package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
)

// setupTestCmd returns the setup command with a context attached, the way
// Execute would hand it to RunE.
func setupTestCmd() *cobra.Command {
	setupCmd.SetContext(context.Background())
	return setupCmd
}

func TestRunSetupTwiceIsIdempotent(t *testing.T) {
	oldOutput := flagOutput
	flagOutput = "text"
	defer func() { flagOutput = oldOutput }()

	cfg := testConfig(t)
	d := newTestDeps(cfg, &mockSupervisor{})

	if err := runSetup(setupTestCmd(), d); err != nil {
		t.Fatalf("first setup: %v", err)
	}
	for _, dir := range []string{cfg.SongsDir, cfg.TmpDir, cfg.RecordingsDir, filepath.Join(cfg.HomeDir, "logs")} {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			t.Fatalf("directory %s not provisioned: %v", dir, err)
		}
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}

	// Second run finds everything in place and succeeds without touching it.
	before, err := os.Stat(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := runSetup(setupTestCmd(), d); err != nil {
		t.Fatalf("second setup: %v", err)
	}
	after, err := os.Stat(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	if after.Size() != before.Size() {
		t.Errorf("database size changed across setup runs: %d -> %d", before.Size(), after.Size())
	}
}

func TestRunSetupReportsMissingTools(t *testing.T) {
	oldOutput := flagOutput
	flagOutput = "text"
	defer func() { flagOutput = oldOutput }()

	cfg := testConfig(t)
	d := newTestDeps(cfg, &mockSupervisor{})
	d.Runner = &mockRunner{tools: map[string]bool{"ffmpeg": true, "ffprobe": true}}

	err := runSetup(setupTestCmd(), d)
	if err == nil {
		t.Fatal("expected error when yt-dlp is missing")
	}
	if !containsSubstr(err.Error(), "yt-dlp") {
		t.Errorf("error %q does not name the missing tool", err)
	}
	if code := exitcodes.CodeForError(err); code != exitcodes.PreconditionFailed {
		t.Errorf("exit code = %d, want %d", code, exitcodes.PreconditionFailed)
	}
}

func TestRunSetupMissingTLSFiles(t *testing.T) {
	oldOutput := flagOutput
	flagOutput = "text"
	defer func() { flagOutput = oldOutput }()

	cfg := testConfig(t)
	cfg.ServeHTTPS = true
	cfg.CertFile = filepath.Join(cfg.HomeDir, "nope-fullchain.pem")
	cfg.CertKey = filepath.Join(cfg.HomeDir, "nope-privkey.pem")
	d := newTestDeps(cfg, &mockSupervisor{})

	err := runSetup(setupTestCmd(), d)
	if err == nil {
		t.Fatal("expected error for unreadable certificate")
	}
	if !containsSubstr(err.Error(), "certificate") {
		t.Errorf("error %q should mention the certificate", err)
	}
}
