package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	ui "github.com/songscout/songscout/internal/ui"
)

func TestHandleLogsCore_NoLogPath(t *testing.T) {
	origOutput := flagOutput
	defer func() { flagOutput = origOutput }()
	flagOutput = "text"

	sup := &mockSupervisor{logPath: ""}

	err := handleLogsCore(sup, logDeps{stat: os.Stat})
	if err == nil {
		t.Fatal("expected error when no log path configured")
	}
	if err.Error() != "no log path configured" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHandleLogsCore_FileNotFound(t *testing.T) {
	origOutput := flagOutput
	defer func() { flagOutput = origOutput }()
	flagOutput = "text"

	sup := &mockSupervisor{logPath: "/nonexistent/path/to/songscout.log"}

	err := handleLogsCore(sup, logDeps{stat: os.Stat})
	if err == nil {
		t.Fatal("expected error when log file not found")
	}
	if !containsSubstr(err.Error(), "log file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHandleLogsCore_NonInteractiveFallsBackToPlainTail(t *testing.T) {
	origOutput := flagOutput
	origNonInteractive := flagNonInteractive
	defer func() {
		flagOutput = origOutput
		flagNonInteractive = origNonInteractive
	}()
	flagOutput = "text"
	flagNonInteractive = true

	dir := t.TempDir()
	logFile := filepath.Join(dir, "songscout.log")
	if err := os.WriteFile(logFile, []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotOpts ui.LogUIOptions
	deps := logDeps{
		isTerminal: func(fd int) bool { return false },
		openTTY:    func() (*os.File, error) { return nil, errMock },
		runLogUI: func(ctx context.Context, opts ui.LogUIOptions) error {
			gotOpts = opts
			return nil
		},
		stat: os.Stat,
	}

	sup := &mockSupervisor{logPath: logFile}
	if err := handleLogsCore(sup, deps); err != nil {
		t.Fatalf("handleLogsCore: %v", err)
	}
	if gotOpts.LogPath != logFile {
		t.Errorf("LogPath = %q, want %q", gotOpts.LogPath, logFile)
	}
	if gotOpts.ShowFooter {
		t.Error("expected footer disabled for non-interactive session")
	}
}

func TestHandleLogsCore_InteractiveKeepsFooter(t *testing.T) {
	origNonInteractive := flagNonInteractive
	defer func() { flagNonInteractive = origNonInteractive }()
	flagNonInteractive = false

	dir := t.TempDir()
	logFile := filepath.Join(dir, "songscout.log")
	if err := os.WriteFile(logFile, []byte("line\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotOpts ui.LogUIOptions
	deps := logDeps{
		isTerminal: func(fd int) bool { return true },
		openTTY:    func() (*os.File, error) { return nil, errMock },
		runLogUI: func(ctx context.Context, opts ui.LogUIOptions) error {
			gotOpts = opts
			return nil
		},
		stat: os.Stat,
	}

	sup := &mockSupervisor{logPath: logFile}
	if err := handleLogsCore(sup, deps); err != nil {
		t.Fatalf("handleLogsCore: %v", err)
	}
	if !gotOpts.ShowFooter {
		t.Error("expected footer enabled for interactive session")
	}
	if gotOpts.BgKey != 'b' {
		t.Errorf("BgKey = %q, want 'b'", gotOpts.BgKey)
	}
}
