package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/library"
	"github.com/songscout/songscout/internal/process"
	"github.com/songscout/songscout/internal/store"
	ui "github.com/songscout/songscout/internal/ui"
)

// Prompter abstracts interactive terminal I/O for testability.
type Prompter interface {
	// ReadLine displays the prompt and reads a line of input.
	ReadLine(prompt string) (string, error)
	// IsInteractive returns whether the terminal supports interactive input.
	IsInteractive() bool
}

// CommandRunner abstracts exec.Command calls for testability.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg       config.Config
	Sup       process.Supervisor
	Printer   ui.Printer
	Runner    CommandRunner
	Prompter  Prompter
	Output    io.Writer
	PortCheck func(hostport string, timeout time.Duration) bool

	// OpenStore opens the configured database. Commands that touch the
	// catalog call it lazily so status-style commands keep working with a
	// missing or broken database file.
	OpenStore func() (store.Store, error)
}

// execRunner is the production implementation of CommandRunner.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (r *execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// ttyPrompter is the production implementation of Prompter.
// It uses /dev/tty when stdin is not a terminal (e.g., piped input).
type ttyPrompter struct{}

func (p *ttyPrompter) ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)

	var reader *bufio.Reader
	if term.IsTerminal(int(os.Stdin.Fd())) {
		reader = bufio.NewReader(os.Stdin)
	} else {
		tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			return "", fmt.Errorf("no interactive terminal available: %w", err)
		}
		defer tty.Close()
		reader = bufio.NewReader(tty)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *ttyPrompter) IsInteractive() bool {
	if flagNonInteractive {
		return false
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	// Check if /dev/tty is accessible
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err == nil {
		tty.Close()
		return true
	}
	return false
}

// newDeps creates production dependencies from the current flags and config.
func newDeps() *Deps {
	cfg := loadCfg()
	return &Deps{
		Cfg:       cfg,
		Sup:       process.New(cfg.HomeDir),
		Printer:   getPrinter(),
		Runner:    &execRunner{},
		Prompter:  &ttyPrompter{},
		Output:    os.Stdout,
		PortCheck: process.IsListening,
		OpenStore: func() (store.Store, error) {
			return store.Open(cfg.DBDriver, cfg.DBPath)
		},
	}
}

// newLibrary builds the catalog service with the YouTube resolver wired in.
func newLibrary(cfg config.Config, db store.Store, log *slog.Logger) *library.Service {
	lib := library.New(db, cfg.SongsDir, cfg.TmpDir, log)
	lib.ResolveYT = func(title, artist string, durationSec float64) (string, error) {
		return download.GetYouTubeID(&download.Track{Title: title, Artist: artist, Duration: durationSec})
	}
	return lib
}
