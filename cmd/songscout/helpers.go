package main

import (
	"log/slog"
	"os"
	"path/filepath"

	ui "github.com/songscout/songscout/internal/ui"
)

// silentErr wraps errors that were already reported to the user; Execute
// skips re-printing them but still maps the exit code.
type silentErr struct{ error }

func (e silentErr) Unwrap() error { return e.error }

// findSongscout returns the path to the songscout binary used for
// background starts, resolving the --bin flag, the SONGSCOUT_BIN
// environment variable, the current executable, or a PATH lookup.
func findSongscout() string {
	if flagBin != "" {
		return flagBin
	}
	if v := os.Getenv("SONGSCOUT_BIN"); v != "" {
		return v
	}
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	return "songscout"
}

// getenvDefault returns the environment value for k, or default d
// when k is not set.
func getenvDefault(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// getPrinter returns a UI printer bound to the current --output flag.
func getPrinter() ui.Printer { return ui.NewPrinterFromGlobal(flagOutput) }

// newLogger builds the slog logger used by the library, download, and
// server packages. Debug flag lowers the level; quiet raises it.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagDebug || flagVerbose {
		level = slog.LevelDebug
	}
	if flagQuiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ensureDirs creates the directory layout the server and library expect.
func ensureDirs(dirs ...string) error {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ensureParentDir creates the parent directory of path.
func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
