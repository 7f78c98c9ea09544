package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the database and downloaded audio",
	Long:  "Delete every song, fingerprint, and downloaded audio file. This cannot be undone.",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		p := d.Printer

		if !flagYes {
			if !d.Prompter.IsInteractive() {
				return exitcodes.PreconditionError("refusing to erase without --yes in non-interactive mode")
			}
			answer, err := d.Prompter.ReadLine("Erase ALL songs and fingerprints? [y/N]: ")
			if err != nil {
				return err
			}
			answer = strings.ToLower(answer)
			if answer != "y" && answer != "yes" {
				p.Warn("Erase cancelled")
				return nil
			}
		}

		db, err := d.OpenStore()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		lib := newLibrary(d.Cfg, db, newLogger())
		if err := lib.Erase(cmd.Context()); err != nil {
			return fmt.Errorf("erase failed: %w", err)
		}

		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "erase"})
			return nil
		}
		p.Success("Erased all songs and fingerprints")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}
