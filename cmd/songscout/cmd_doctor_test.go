package main

import (
	"testing"
	"time"

	"github.com/songscout/songscout/internal/store"
	ui "github.com/songscout/songscout/internal/ui"
)

func TestCheckServerProcess(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false

	cfg := testConfig(t)
	d := newTestDeps(cfg, &mockSupervisor{running: true, pid: 99})
	if r := checkServerProcess(d, c); r.Status != "pass" {
		t.Errorf("running: status = %s, want pass", r.Status)
	}

	d = newTestDeps(cfg, &mockSupervisor{running: false})
	if r := checkServerProcess(d, c); r.Status != "warn" {
		t.Errorf("stopped: status = %s, want warn", r.Status)
	}
}

func TestCheckListener(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false
	cfg := testConfig(t)

	// Running server, unreachable port: hard failure.
	d := newTestDeps(cfg, &mockSupervisor{running: true, pid: 1})
	if r := checkListener(d, c); r.Status != "fail" {
		t.Errorf("running+closed: status = %s, want fail", r.Status)
	}

	// Stopped server, closed port: only a warning.
	d = newTestDeps(cfg, &mockSupervisor{running: false})
	if r := checkListener(d, c); r.Status != "warn" {
		t.Errorf("stopped+closed: status = %s, want warn", r.Status)
	}

	// Open port passes regardless of process state.
	d = newTestDeps(cfg, &mockSupervisor{running: false})
	d.PortCheck = func(hostport string, timeout time.Duration) bool { return true }
	if r := checkListener(d, c); r.Status != "pass" {
		t.Errorf("open port: status = %s, want pass", r.Status)
	}
}

func TestCheckDatabase(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false
	cfg := testConfig(t)

	d := newTestDeps(cfg, &mockSupervisor{})
	if r := checkDatabase(d, c); r.Status != "pass" {
		t.Errorf("fresh db: status = %s, want pass", r.Status)
	}

	d.OpenStore = func() (store.Store, error) { return nil, errMock }
	if r := checkDatabase(d, c); r.Status != "fail" {
		t.Errorf("broken db: status = %s, want fail", r.Status)
	}
}

func TestCheckTools(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false
	cfg := testConfig(t)

	d := newTestDeps(cfg, &mockSupervisor{})
	if r := checkTools(d, c); r.Status != "pass" {
		t.Errorf("all tools: status = %s, want pass", r.Status)
	}

	d.Runner = &mockRunner{tools: map[string]bool{"ffmpeg": true}}
	r := checkTools(d, c)
	if r.Status != "fail" {
		t.Errorf("missing tools: status = %s, want fail", r.Status)
	}
	if !containsSubstr(r.Message, "yt-dlp") {
		t.Errorf("message should name missing tool, got %q", r.Message)
	}
}

func TestCheckPermissions(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false
	cfg := testConfig(t)

	d := newTestDeps(cfg, &mockSupervisor{})
	if r := checkPermissions(d, c); r.Status != "pass" {
		t.Errorf("writable home: status = %s, want pass", r.Status)
	}

	d.Cfg.HomeDir = "/nonexistent/readonly/home"
	if r := checkPermissions(d, c); r.Status != "fail" {
		t.Errorf("unwritable home: status = %s, want fail", r.Status)
	}
}

func TestCheckTLSFiles(t *testing.T) {
	c := ui.NewColorConfig()
	c.Enabled = false
	cfg := testConfig(t)
	cfg.CertFile = "/nonexistent/fullchain.pem"
	cfg.CertKey = "/nonexistent/privkey.pem"

	d := newTestDeps(cfg, &mockSupervisor{})
	if r := checkTLSFiles(d, c); r.Status != "fail" {
		t.Errorf("missing certs: status = %s, want fail", r.Status)
	}
}
