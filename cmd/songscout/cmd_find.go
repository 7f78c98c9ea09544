package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/match"
	ui "github.com/songscout/songscout/internal/ui"
	"github.com/songscout/songscout/internal/wav"
)

// maxFindResults caps how many candidates the find command prints.
const maxFindResults = 20

var findCmd = &cobra.Command{
	Use:   "find <audio-file>",
	Short: "Recognize a song from an audio file",
	Long: `Fingerprint an audio file and search the catalog for matches.

Non-WAV inputs are converted with ffmpeg first. Results are sorted by
score, best match first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return exitcodes.InvalidArgsErrorf("cannot read %s: %v", path, err)
		}

		if !strings.EqualFold(filepath.Ext(path), ".wav") {
			converted, err := wav.ConvertToWAV(path, 1)
			if err != nil {
				return exitcodes.AudioErrf("converting to WAV: %v", err)
			}
			defer os.Remove(converted)
			path = converted
		}

		db, err := d.OpenStore()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		matches, took, err := match.FindMatchesForFile(cmd.Context(), db, path)
		if err != nil {
			return exitcodes.AudioErrf("matching: %v", err)
		}
		if len(matches) > maxFindResults {
			matches = matches[:maxFindResults]
		}

		p := d.Printer
		if flagOutput == "json" {
			p.JSON(map[string]any{"matches": matches, "search_ms": took.Milliseconds()})
			return nil
		}

		if len(matches) == 0 {
			p.Info("No match found.")
			return nil
		}

		headers := []string{"SCORE", "TITLE", "ARTIST", "YOUTUBE"}
		rows := make([][]string, 0, len(matches))
		for _, m := range matches {
			yt := ""
			if m.YouTubeID != "" {
				yt = "https://www.youtube.com/watch?v=" + m.YouTubeID
			}
			rows = append(rows, []string{
				fmt.Sprintf("%.1f", m.Score),
				m.SongTitle,
				m.Artist,
				yt,
			})
		}
		fmt.Println(ui.Table(p.Colors, headers, rows, []int{8, 32, 24, 44}))
		fmt.Println(p.Colors.Description(fmt.Sprintf("search took %s", took)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
