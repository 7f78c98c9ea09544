package main

import (
	"path/filepath"
	"testing"
)

func TestLoadCfgHomeOverride(t *testing.T) {
	origHome := flagHome
	defer func() { flagHome = origHome }()

	t.Setenv("HOME_DIR", "")
	t.Setenv("DB_FILE", "")
	flagHome = "/srv/songscout"

	cfg := loadCfg()
	if cfg.HomeDir != "/srv/songscout" {
		t.Errorf("HomeDir = %q", cfg.HomeDir)
	}
	if cfg.SongsDir != filepath.Join("/srv/songscout", "songs") {
		t.Errorf("SongsDir = %q", cfg.SongsDir)
	}
	if cfg.DBPath != filepath.Join("/srv/songscout", "db.sqlite3") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadCfgHomeOverrideKeepsExplicitDBFile(t *testing.T) {
	origHome := flagHome
	defer func() { flagHome = origHome }()

	t.Setenv("DB_FILE", "/data/custom.sqlite3")
	flagHome = "/srv/songscout"

	cfg := loadCfg()
	if cfg.DBPath != "/data/custom.sqlite3" {
		t.Errorf("DBPath = %q, want explicit DB_FILE preserved", cfg.DBPath)
	}
}

func TestRootCommandsRegistered(t *testing.T) {
	want := []string{
		"serve", "setup", "start", "stop", "restart", "status", "logs",
		"doctor", "dashboard", "backup", "update", "version", "completion",
		"find", "save", "download", "erase", "songs",
	}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}
