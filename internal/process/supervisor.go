// Package process supervises the background songscout server: detached
// launch, PID file tracking, and graceful shutdown.
package process

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Supervisor controls the songscout server process: start/stop/restart and
// status. The implementation handles detached exec, PID files, and log paths.
type Supervisor interface {
	Start(opts StartOpts) (int, error) // returns PID
	Stop() error
	Restart(opts StartOpts) (int, error)
	IsRunning() bool
	PID() (int, bool)
	Uptime() (time.Duration, bool)
	LogPath() string
}

// StartOpts captures settings for launching the server.
type StartOpts struct {
	HomeDir   string
	BinPath   string            // path to the songscout binary (defaults to current executable)
	Proto     string            // "http" or "https"
	Port      int               // listener port
	Env       map[string]string // extra environment (SERVE_HTTPS, CERT_FILE, ...)
	ExtraArgs []string
}

type supervisor struct {
	pidFile string
	logFile string
	mu      sync.Mutex
}

// New returns a process supervisor bound to the given home dir.
func New(home string) Supervisor {
	return &supervisor{
		pidFile: filepath.Join(home, "songscout.pid"),
		logFile: filepath.Join(home, "logs", "songscout.log"),
	}
}

func (s *supervisor) LogPath() string { return s.logFile }

func (s *supervisor) PID() (int, bool) {
	b, err := os.ReadFile(s.pidFile)
	if err != nil {
		return 0, false
	}
	txt := strings.TrimSpace(string(b))
	if txt == "" {
		return 0, false
	}
	pid, err := strconv.Atoi(txt)
	if err != nil {
		return 0, false
	}
	if processAlive(pid) {
		return pid, true
	}
	// Process is dead - clean up stale PID file
	_ = os.Remove(s.pidFile)
	return 0, false
}

func (s *supervisor) IsRunning() bool {
	_, ok := s.PID()
	return ok
}

func (s *supervisor) Uptime() (time.Duration, bool) {
	pid, ok := s.PID()
	if !ok {
		return 0, false
	}

	// ps -o etimes works on both Linux and macOS.
	out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "etimes=").Output()
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func (s *supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.PID()
	if !ok {
		return nil
	}
	// Try graceful TERM to process group first, fall back to individual PID
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
	// Wait up to 15 seconds
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(s.pidFile)
			return nil
		}
		time.Sleep(300 * time.Millisecond)
	}
	// Force kill process group, fall back to individual PID
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	killDeadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(killDeadline) {
		if !processAlive(pid) {
			_ = os.Remove(s.pidFile)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	_ = os.Remove(s.pidFile)
	if processAlive(pid) {
		return errors.New("failed to stop songscout server")
	}
	return nil
}

func (s *supervisor) Restart(opts StartOpts) (int, error) {
	if err := s.Stop(); err != nil {
		return 0, err
	}
	return s.Start(opts)
}

func (s *supervisor) Start(opts StartOpts) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.HomeDir == "" {
		return 0, errors.New("HomeDir required")
	}
	if s.IsRunning() {
		pid, _ := s.PID()
		return pid, nil
	}

	if err := os.MkdirAll(filepath.Join(opts.HomeDir, "logs"), 0o755); err != nil {
		return 0, err
	}

	bin := opts.BinPath
	if bin == "" {
		exe, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("resolve songscout binary: %w", err)
		}
		bin = exe
	}

	proto := opts.Proto
	if proto == "" {
		proto = "http"
	}
	args := []string{"serve", "--proto", proto}
	if opts.Port > 0 {
		args = append(args, "--port", strconv.Itoa(opts.Port))
	}
	args = append(args, opts.ExtraArgs...)

	// Open/append log file
	lf, err := os.OpenFile(s.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(bin, args...)
	cmd.Dir = opts.HomeDir
	cmd.Stdout = lf
	cmd.Stderr = lf
	cmd.Stdin = nil
	cmd.Env = os.Environ()
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	// Detach from this session/process group
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		_ = lf.Close()
		return 0, fmt.Errorf("start songscout server: %w", err)
	}
	pid := cmd.Process.Pid
	if err := os.WriteFile(s.pidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		// Best effort stop if we can't persist PID
		_ = syscall.Kill(pid, syscall.SIGTERM)
		_ = lf.Close()
		return 0, err
	}
	// We do not wait; keep log file open a bit to avoid losing early bytes
	go func(f *os.File) {
		time.Sleep(500 * time.Millisecond)
		_ = f.Sync()
		_ = f.Close()
	}(lf)
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// signal 0 tests for existence without sending a signal
	err := syscall.Kill(pid, 0)
	return err == nil
}

// IsListening returns true if a TCP connection to the given port succeeds.
func IsListening(hostport string, timeout time.Duration) bool {
	if hostport == "" {
		hostport = "127.0.0.1:5000"
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", hostport)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
