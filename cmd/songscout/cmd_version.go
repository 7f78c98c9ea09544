package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	ui "github.com/songscout/songscout/internal/ui"
	"github.com/songscout/songscout/internal/update"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		info := map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		}
		switch flagOutput {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(info)
		case "yaml":
			data, _ := yaml.Marshal(info)
			fmt.Println(string(data))
		default:
			fmt.Printf("songscout %s (%s) built %s\n", Version, Commit, BuildDate)
		}
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// checkForUpdateBackground runs in a goroutine from PersistentPreRun and
// deposits its result in updateCheckResult. A cache entry under the home
// directory keeps it to at most one network call per day.
func checkForUpdateBackground() {
	cfg := loadCfg()

	cache, err := update.LoadCache(cfg.HomeDir)
	if err == nil && update.IsCacheValid(cache) {
		// Re-verify against the running binary: the cached "update
		// available" may predate an update that already happened.
		if cache.UpdateAvailable && update.IsNewerVersion(Version, cache.LatestVersion) {
			updateCheckMu.Lock()
			updateCheckResult = &update.CheckResult{
				CurrentVersion:  strings.TrimPrefix(Version, "v"),
				LatestVersion:   cache.LatestVersion,
				UpdateAvailable: true,
			}
			updateCheckMu.Unlock()
		}
		return
	}

	result, err := update.Check(Version)
	if err != nil {
		// A failed check must never disturb the command the user ran.
		return
	}

	_ = update.SaveCache(cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   result.LatestVersion,
		UpdateAvailable: result.UpdateAvailable,
	})

	if result.UpdateAvailable {
		updateCheckMu.Lock()
		updateCheckResult = result
		updateCheckMu.Unlock()
	}
}

// showUpdateNotification prints the banner after the command finishes.
// Suppressed for machine-readable output and in quiet mode.
func showUpdateNotification(latestVersion string) {
	if flagOutput == "json" || flagOutput == "yaml" || flagQuiet {
		return
	}

	c := ui.NewColorConfig()
	c.Enabled = c.Enabled && !flagNoColor

	fmt.Println()
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
	fmt.Printf(c.Warning("  Update available: %s → %s\n"), Version, latestVersion)
	fmt.Println(c.Info("  Run: songscout update"))
	fmt.Println(c.Warning("─────────────────────────────────────────────────────────────"))
}

// shouldSkipUpdateCheck returns true for commands where update notifications
// are disruptive: the foreground server, log tailing, the dashboard, and the
// update/version commands themselves.
func shouldSkipUpdateCheck(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "update", "help", "version", "completion":
		return true
	case "serve", "logs", "dashboard", "setup":
		return true
	}
	return false
}
