package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/update"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer songscout release",
	Long: `Check GitHub for a newer songscout release and show its changelog.
The result is cached for 24 hours and reused by the background update
notification.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadCfg()
		p := getPrinter()

		if flagOutput != "json" {
			p.Info("Checking for updates...")
		}
		result, err := update.Check(Version)
		if err != nil {
			return exitcodes.WrapError(exitcodes.NetworkError, "update check failed", err)
		}

		_ = update.SaveCache(cfg.HomeDir, &update.CacheEntry{
			CheckedAt:       time.Now(),
			LatestVersion:   result.LatestVersion,
			UpdateAvailable: result.UpdateAvailable,
		})

		if flagOutput == "json" {
			p.JSON(map[string]any{
				"current_version":  result.CurrentVersion,
				"latest_version":   result.LatestVersion,
				"update_available": result.UpdateAvailable,
			})
			return nil
		}

		if !result.UpdateAvailable {
			p.Success(fmt.Sprintf("Already up to date (v%s)", result.CurrentVersion))
			return nil
		}

		fmt.Println()
		p.Info(fmt.Sprintf("Update available: v%s → v%s", result.CurrentVersion, result.LatestVersion))

		// Show changelog (first 10 lines)
		if result.Release != nil && result.Release.Body != "" {
			fmt.Println()
			fmt.Println("Changelog:")
			lines := strings.Split(result.Release.Body, "\n")
			maxLines := 10
			if len(lines) < maxLines {
				maxLines = len(lines)
			}
			for _, line := range lines[:maxLines] {
				fmt.Printf("  %s\n", line)
			}
			if len(lines) > 10 && result.Release.HTMLURL != "" {
				fmt.Printf("  ... (see %s for full changelog)\n", result.Release.HTMLURL)
			}
		}

		if !updateCheckOnly && result.Release != nil && result.Release.HTMLURL != "" {
			fmt.Println()
			p.Info(fmt.Sprintf("Download: %s", result.Release.HTMLURL))
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Only report whether an update is available")
	rootCmd.AddCommand(updateCmd)
}
