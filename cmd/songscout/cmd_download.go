package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/ui"
)

// downloadKind classifies a Spotify URL so the handler can dispatch to the
// right downloader. Returns "" for unrecognized URLs.
func downloadKind(url string) string {
	switch {
	case strings.Contains(url, "album"):
		return "album"
	case strings.Contains(url, "playlist"):
		return "playlist"
	case strings.Contains(url, "track"):
		return "track"
	}
	return ""
}

var downloadCmd = &cobra.Command{
	Use:   "download <spotify-url>",
	Short: "Download a Spotify track, album, or playlist",
	Long: `Download every track behind a Spotify URL into the songs directory,
fingerprinting and registering each one in the catalog. Audio comes from
YouTube; the Spotify URL only supplies the track metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		url := args[0]

		kind := downloadKind(url)
		if kind == "" {
			return exitcodes.InvalidArgsErrorf("unrecognized Spotify URL: %s", url)
		}

		if err := ensureDirs(d.Cfg.SongsDir, d.Cfg.TmpDir); err != nil {
			return fmt.Errorf("creating directories: %w", err)
		}

		db, err := d.OpenStore()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		lib := newLibrary(d.Cfg, db, newLogger())
		dl := download.New(db, lib, newLogger())

		p := d.Printer
		if flagOutput != "json" {
			p.Info(fmt.Sprintf("Downloading %s...", kind))
		}

		// Per-track progress bar for interactive text output. Callbacks
		// arrive from worker goroutines, so guard the bar with a mutex.
		if flagOutput != "json" && !flagQuiet {
			var barMu sync.Mutex
			var bar *ui.ProgressBar
			dl.OnTrack = func(done, total int) {
				barMu.Lock()
				defer barMu.Unlock()
				if bar == nil {
					bar = ui.NewProgressBar(os.Stdout, int64(total))
					bar.FormatValue = func(v int64) string { return strconv.FormatInt(v, 10) }
					bar.ShowRate = false
				}
				bar.Update(int64(done))
				if done >= total {
					bar.Finish()
				}
			}
		}

		var total int
		switch kind {
		case "album":
			total, err = dl.DownloadAlbum(cmd.Context(), url, d.Cfg.SongsDir)
		case "playlist":
			total, err = dl.DownloadPlaylist(cmd.Context(), url, d.Cfg.SongsDir)
		case "track":
			total, err = dl.DownloadTrack(cmd.Context(), url, d.Cfg.SongsDir)
		}
		if err != nil {
			if total > 0 {
				// Partial success: report what landed before failing.
				if flagOutput == "json" {
					p.JSON(map[string]any{"ok": false, "downloaded": total, "error": err.Error()})
					return silentErr{err}
				}
				p.Warn(fmt.Sprintf("Downloaded %d song(s) before failing: %v", total, err))
				return silentErr{err}
			}
			return exitcodes.WrapError(exitcodes.NetworkError, "download failed", err)
		}

		songs, _ := db.TotalSongs(context.Background())
		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "download", "kind": kind, "downloaded": total, "total_songs": songs})
			return nil
		}
		p.Success(fmt.Sprintf("Downloaded %d song(s) (%d in catalog)", total, songs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}
