package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
)

// requiredTools are the external binaries the engine shells out to.
// ffmpeg/ffprobe handle audio conversion and metadata; yt-dlp fetches
// audio streams for downloads.
var requiredTools = []string{"ffmpeg", "ffprobe", "yt-dlp"}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare home directory, database, and tool checks",
	Long: `Provision the songscout home directory: create the directory layout,
initialize the database schema, and verify that the external tools the
engine depends on are installed. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(cmd, newDeps())
	},
}

func runSetup(cmd *cobra.Command, d *Deps) error {
	p := d.Printer
	cfg := d.Cfg

	dirs := []string{
		cfg.HomeDir,
		cfg.SongsDir,
		cfg.TmpDir,
		cfg.RecordingsDir,
		filepath.Join(cfg.HomeDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	// Opening the store creates the schema on first use.
	db, err := d.OpenStore()
	if err != nil {
		return exitcodes.WrapError(exitcodes.ValidationError, "initializing database", err)
	}
	total, _ := db.TotalSongs(cmd.Context())
	_ = db.Close()

	var missing []string
	for _, tool := range requiredTools {
		if _, err := d.Runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	var tlsErr error
	if cfg.ServeHTTPS {
		if _, err := os.Stat(cfg.CertFile); err != nil {
			tlsErr = exitcodes.PreconditionErrorf("certificate not readable: %s", cfg.CertFile)
		} else if _, err := os.Stat(cfg.CertKey); err != nil {
			tlsErr = exitcodes.PreconditionErrorf("certificate key not readable: %s", cfg.CertKey)
		}
	}

	if flagOutput == "json" {
		out := map[string]any{
			"ok":            len(missing) == 0 && tlsErr == nil,
			"home":          cfg.HomeDir,
			"database":      cfg.DBPath,
			"total_songs":   total,
			"missing_tools": missing,
		}
		if tlsErr != nil {
			out["tls_error"] = tlsErr.Error()
		}
		p.JSON(out)
		if tlsErr != nil {
			return silentErr{tlsErr}
		}
		if len(missing) > 0 {
			return silentErr{exitcodes.PreconditionErrorf("missing tools: %v", missing)}
		}
		return nil
	}

	p.Success(fmt.Sprintf("Home directory ready: %s", cfg.HomeDir))
	p.Success(fmt.Sprintf("Database ready: %s (%d songs)", cfg.DBPath, total))
	for _, tool := range requiredTools {
		found := true
		for _, m := range missing {
			if m == tool {
				found = false
			}
		}
		if found {
			p.Success(fmt.Sprintf("Found %s", tool))
		} else {
			p.Error(fmt.Sprintf("Missing %s", tool))
		}
	}
	if cfg.ServeHTTPS {
		if tlsErr != nil {
			p.Error(tlsErr.Error())
		} else {
			p.Success(fmt.Sprintf("TLS certificate ready: %s", cfg.CertFile))
		}
	}
	if len(missing) > 0 {
		fmt.Println()
		p.Warn("Install the missing tools before using download/save/find")
		return silentErr{exitcodes.PreconditionErrorf("missing tools: %v", missing)}
	}
	if tlsErr != nil {
		return silentErr{tlsErr}
	}

	fmt.Println()
	fmt.Println(p.Colors.Info("Next steps:"))
	fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout start"))
	fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (start the recognition server)"))
	fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout download <spotify-url>"))
	fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (seed the catalog)"))
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
