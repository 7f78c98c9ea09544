package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/process"
	"github.com/songscout/songscout/internal/store"
	ui "github.com/songscout/songscout/internal/ui"
)

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

// mockSupervisor implements process.Supervisor for testing.
type mockSupervisor struct {
	running  bool
	pid      int
	uptime   time.Duration
	logPath  string
	stopErr  error
	startPID int
	startErr error

	lastStart process.StartOpts
}

func (m *mockSupervisor) Start(opts process.StartOpts) (int, error) {
	if m.startErr != nil {
		return 0, m.startErr
	}
	m.lastStart = opts
	m.running = true
	return m.startPID, nil
}

func (m *mockSupervisor) Stop() error {
	if m.stopErr != nil {
		return m.stopErr
	}
	m.running = false
	return nil
}

func (m *mockSupervisor) Restart(opts process.StartOpts) (int, error) {
	if err := m.Stop(); err != nil {
		return 0, err
	}
	return m.Start(opts)
}

func (m *mockSupervisor) IsRunning() bool { return m.running }

func (m *mockSupervisor) PID() (int, bool) {
	if m.running && m.pid > 0 {
		return m.pid, true
	}
	return 0, false
}

func (m *mockSupervisor) Uptime() (time.Duration, bool) {
	if m.running && m.uptime > 0 {
		return m.uptime, true
	}
	return 0, false
}

func (m *mockSupervisor) LogPath() string { return m.logPath }

// mockRunner implements CommandRunner with scripted tool availability.
type mockRunner struct {
	tools  map[string]bool // LookPath answers; missing key means not found
	output []byte
	runErr error
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.output, m.runErr
}

func (m *mockRunner) LookPath(name string) (string, error) {
	if m.tools[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: executable file not found in $PATH", name)
}

// mockPrompter implements Prompter with canned responses.
type mockPrompter struct {
	lines       []string
	interactive bool
	readErr     error
}

func (m *mockPrompter) ReadLine(prompt string) (string, error) {
	if m.readErr != nil {
		return "", m.readErr
	}
	if len(m.lines) == 0 {
		return "", errors.New("no more scripted input")
	}
	line := m.lines[0]
	m.lines = m.lines[1:]
	return line, nil
}

func (m *mockPrompter) IsInteractive() bool { return m.interactive }

// newTestDeps builds Deps around mocks and a real sqlite store in dir.
func newTestDeps(cfg config.Config, sup *mockSupervisor) *Deps {
	return &Deps{
		Cfg:      cfg,
		Sup:      sup,
		Printer:  ui.NewPrinter("text"),
		Runner:   &mockRunner{tools: map[string]bool{"ffmpeg": true, "ffprobe": true, "yt-dlp": true}},
		Prompter: &mockPrompter{interactive: false},
		PortCheck: func(hostport string, timeout time.Duration) bool {
			return false
		},
		OpenStore: func() (store.Store, error) {
			return store.Open(cfg.DBDriver, cfg.DBPath)
		},
	}
}

func containsSubstr(s, sub string) bool { return strings.Contains(s, sub) }
