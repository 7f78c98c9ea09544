package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/server"
	"github.com/songscout/songscout/internal/store"
)

var (
	serveProto string
	servePort  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recognition server in the foreground",
	Long: `Run the HTTP(S) recognition server in the foreground until interrupted.

The server exposes the REST API (/api/find, /api/download, /api/save,
/api/erase, /api/songs) and the WebSocket endpoint (/ws). Use 'start' to
run it detached in the background instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadCfg()

		useTLS := cfg.ServeHTTPS
		switch serveProto {
		case "http":
			useTLS = false
		case "https":
			useTLS = true
		case "":
			// keep env-derived default
		default:
			return exitcodes.InvalidArgsErrorf("invalid --proto: %s (use http|https)", serveProto)
		}
		if servePort > 0 {
			if useTLS {
				cfg.TLSPort = servePort
			} else {
				cfg.HTTPPort = servePort
			}
		}
		if useTLS {
			if _, err := os.Stat(cfg.CertFile); err != nil {
				return exitcodes.PreconditionErrorf("certificate not readable: %s", cfg.CertFile)
			}
			if _, err := os.Stat(cfg.CertKey); err != nil {
				return exitcodes.PreconditionErrorf("certificate key not readable: %s", cfg.CertKey)
			}
		}

		if err := ensureDirs(cfg.HomeDir, cfg.SongsDir, cfg.TmpDir, cfg.RecordingsDir); err != nil {
			return fmt.Errorf("creating directories: %w", err)
		}

		log := newLogger()
		db, err := store.Open(cfg.DBDriver, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		lib := newLibrary(cfg, db, log)
		dl := download.New(db, lib, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, db, lib, dl, log).Run(ctx, useTLS)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveProto, "proto", "", "Listener protocol: http|https (default from env, http)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listener port (default 5000 http / 4443 https)")
	rootCmd.AddCommand(serveCmd)
}
