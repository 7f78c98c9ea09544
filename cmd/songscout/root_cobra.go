package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/exitcodes"
	ui "github.com/songscout/songscout/internal/ui"
	"github.com/songscout/songscout/internal/update"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// updateCheckResult stores the result of the background update check so
// PersistentPostRun can surface it after the command finishes.
var (
	updateCheckResult *update.CheckResult
	updateCheckMu     sync.Mutex
)

// rootCmd wires the CLI surface using Cobra. Persistent flags are applied
// to a loaded config in loadCfg(). Subcommands implement the actual
// operations (serve, start/stop, find, save, download, etc.).
var rootCmd = &cobra.Command{
	Use:           "songscout",
	Short:         "Songscout",
	Long:          "Recognize, download, and manage a song catalog: serve the recognition API, fingerprint audio, and run admin tasks.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize global UI config from flags after parsing but before command execution
		ui.InitGlobal(ui.Config{
			NoColor:        flagNoColor,
			NoEmoji:        flagNoEmoji,
			Yes:            flagYes,
			NonInteractive: flagNonInteractive,
			Verbose:        flagVerbose,
			Quiet:          flagQuiet,
			Debug:          flagDebug,
		})

		// Set NO_COLOR env so lipgloss and other libraries respect the flag
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}

		if !shouldSkipUpdateCheck(cmd) {
			go checkForUpdateBackground()
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		updateCheckMu.Lock()
		result := updateCheckResult
		updateCheckMu.Unlock()
		if !shouldSkipUpdateCheck(cmd) && result != nil && result.UpdateAvailable {
			showUpdateNotification(result.LatestVersion)
		}
	},
}

var (
	flagHome           string
	flagBin            string
	flagOutput         string
	flagVerbose        bool
	flagQuiet          bool
	flagDebug          bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

func init() {
	// Persistent flags to override defaults
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Songscout home directory (overrides env)")
	rootCmd.PersistentFlags().StringVar(&flagBin, "bin", "", "Path to songscout binary for background start (overrides env)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet mode: minimal output (suppresses extras)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "Debug output: extra diagnostic logs")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	rootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	rootCmd.PersistentFlags().BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")

	// Replace root help to present grouped, example-rich output.
	// Only apply custom help to the root command; subcommands use cobra's default help.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			// For subcommands, print cobra's default usage (includes flags and descriptions)
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		// Help runs before PersistentPreRun, so manually configure colors
		c := ui.NewColorConfig()
		c.Enabled = c.Enabled && !flagNoColor
		c.EmojiEnabled = c.EmojiEnabled && !flagNoEmoji
		w := os.Stdout

		// Fixed column width for command alignment (longest command + buffer)
		const cmdWidth = 28

		fmt.Fprintln(w, c.Header(" Songscout "))
		fmt.Fprintln(w, c.Description("Recognize, download, and manage a song catalog."))
		fmt.Fprintln(w, c.Separator(50))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("USAGE"))
		fmt.Fprintf(w, "  %s <command> [flags]\n", "songscout")
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Quick Start"))
		fmt.Fprintln(w, c.FormatCommandAligned("setup", "Prepare home dir, database, and tool checks", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("start", "Start the recognition server in the background", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("status", "Show server/library/system status", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("dashboard", "Live dashboard with metrics", cmdWidth))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Operations"))
		fmt.Fprintln(w, c.FormatCommandAligned("serve", "Run the server in the foreground", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("stop", "Stop the background server", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("restart", "Restart the background server", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("logs", "Tail server logs", cmdWidth))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Library"))
		fmt.Fprintln(w, c.FormatCommandAligned("find <file>", "Recognize a song from an audio file", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("download <url>", "Download a Spotify track/album/playlist", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("save <path>", "Fingerprint and register local audio", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("songs", "List the song catalog", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("erase", "Erase the database and audio files", cmdWidth))
		fmt.Fprintln(w)

		fmt.Fprintln(w, c.SubHeader("Maintenance"))
		fmt.Fprintln(w, c.FormatCommandAligned("backup", "Create database/songs backup archive", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("doctor", "Run diagnostic checks", cmdWidth))
		fmt.Fprintln(w, c.FormatCommandAligned("update", "Update songscout to latest version", cmdWidth))
		fmt.Fprintln(w)
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var se silentErr
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitcodes.CodeForError(err))
	}
}

// loadCfg reads defaults + env via internal/config.Load() and then applies
// overrides from persistent flags.
func loadCfg() config.Config {
	cfg := config.Load()
	if flagHome != "" {
		cfg.HomeDir = flagHome
		cfg.SongsDir = filepath.Join(flagHome, "songs")
		cfg.TmpDir = filepath.Join(flagHome, "tmp")
		cfg.RecordingsDir = filepath.Join(flagHome, "recordings")
		if os.Getenv("DB_FILE") == "" {
			cfg.DBPath = filepath.Join(flagHome, "db.sqlite3")
		}
	}
	return cfg
}
