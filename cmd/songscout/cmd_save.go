package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
)

var saveForce bool

var saveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Fingerprint and register local audio",
	Long: `Register an audio file, or every file under a directory, in the catalog.

Title and artist are read from the file's metadata tags and a matching
YouTube ID is resolved by search. With --force, files are registered even
when YouTube resolution fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return exitcodes.InvalidArgsErrorf("cannot read %s: %v", path, err)
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
		if err := lib.SavePath(cmd.Context(), path, saveForce); err != nil {
			return exitcodes.WrapError(exitcodes.AudioError, "save failed", err)
		}

		p := d.Printer
		total, _ := db.TotalSongs(cmd.Context())
		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "save", "path": path, "total_songs": total})
			return nil
		}
		p.Success(fmt.Sprintf("Saved %s (%d songs in catalog)", path, total))
		return nil
	},
}

func init() {
	saveCmd.Flags().BoolVarP(&saveForce, "force", "f", false, "Register even when YouTube resolution fails")
	rootCmd.AddCommand(saveCmd)
}
