package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default listener ports: one plaintext, one TLS.
const (
	DefaultHTTPPort = 5000
	DefaultTLSPort  = 4443
)

// Config holds user/system configuration for the songscout CLI and server.
// Values come from Defaults(), then env, then persistent flags (see loadCfg
// in cmd/songscout).
type Config struct {
	HomeDir       string // root for logs, pid file, tmp and recordings
	SongsDir      string // where downloaded/registered songs live
	TmpDir        string // scratch space for conversions
	RecordingsDir string // kept copies of recognized recordings

	DBDriver string // "sqlite" (default) or "mongo" (unsupported)
	DBPath   string // sqlite file path

	HTTPPort   int    // plaintext listener
	TLSPort    int    // TLS listener
	ServeHTTPS bool   // enable the TLS listener
	CertFile   string // certificate chain (PEM)
	CertKey    string // private key (PEM)
}

// Defaults returns the built-in configuration, aligned with the deploy
// scripts' fixed ports and letsencrypt paths.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	root := filepath.Join(home, ".songscout")
	return Config{
		HomeDir:       root,
		SongsDir:      filepath.Join(root, "songs"),
		TmpDir:        filepath.Join(root, "tmp"),
		RecordingsDir: filepath.Join(root, "recordings"),
		DBDriver:      "sqlite",
		DBPath:        filepath.Join(root, "db.sqlite3"),
		HTTPPort:      DefaultHTTPPort,
		TLSPort:       DefaultTLSPort,
		ServeHTTPS:    false,
		CertFile:      "/etc/letsencrypt/live/localport.online/fullchain.pem",
		CertKey:       "/etc/letsencrypt/live/localport.online/privkey.pem",
	}
}

// Load returns defaults with environment overrides applied. The env surface
// matches what the server process consumes when launched from the operator
// scripts: SERVE_HTTPS, CERT_FILE, CERT_KEY, plus DB_TYPE/DB_FILE and
// HOME_DIR.
func Load() Config {
	cfg := Defaults()
	if v := os.Getenv("HOME_DIR"); v != "" {
		cfg.HomeDir = v
		cfg.SongsDir = filepath.Join(v, "songs")
		cfg.TmpDir = filepath.Join(v, "tmp")
		cfg.RecordingsDir = filepath.Join(v, "recordings")
		cfg.DBPath = filepath.Join(v, "db.sqlite3")
	}
	if v := os.Getenv("DB_TYPE"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("DB_FILE"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SERVE_HTTPS"); v != "" {
		cfg.ServeHTTPS = parseBool(v)
	}
	if v := os.Getenv("CERT_FILE"); v != "" {
		cfg.CertFile = v
	}
	if v := os.Getenv("CERT_KEY"); v != "" {
		cfg.CertKey = v
	}
	if v := os.Getenv("SONGSCOUT_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.HTTPPort = p
		}
	}
	if v := os.Getenv("SONGSCOUT_TLS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.TLSPort = p
		}
	}
	return cfg
}

// PIDFile is the supervisor pid file for the background server.
func (c Config) PIDFile() string { return filepath.Join(c.HomeDir, "songscout.pid") }

// LogFile is the background server log, the scripts' only persisted output.
func (c Config) LogFile() string { return filepath.Join(c.HomeDir, "logs", "songscout.log") }

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
