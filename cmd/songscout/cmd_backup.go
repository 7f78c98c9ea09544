package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/admin"
	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/ui"
)

var backupRestore string

var backupCmd = &cobra.Command{
	Use:   "backup [destination]",
	Short: "Create or restore a database/songs backup archive",
	Long: `Create a compressed archive (tar.lz4) of the database and the songs
directory. With no destination the archive is written into the home
directory. Use --restore to unpack an archive back into place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		p := d.Printer
		cfg := d.Cfg

		if backupRestore != "" {
			if _, err := os.Stat(backupRestore); err != nil {
				return exitcodes.InvalidArgsErrorf("cannot read archive %s: %v", backupRestore, err)
			}
			if d.Sup.IsRunning() {
				return exitcodes.PreconditionError("stop the server before restoring (songscout stop)")
			}

			var restored int64
			err := admin.Restore(backupRestore, cfg.DBPath, cfg.SongsDir, func(current, total int64, name string) {
				restored = current
			})
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if flagOutput == "json" {
				p.JSON(map[string]any{"ok": true, "action": "restore", "archive": backupRestore, "entries": restored})
				return nil
			}
			p.Success(fmt.Sprintf("Restored %d entries from %s", restored, backupRestore))
			return nil
		}

		dest := ""
		if len(args) == 1 {
			dest = args[0]
		}
		if dest == "" {
			dest = filepath.Join(cfg.HomeDir, admin.BackupName(time.Now()))
		} else if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
			dest = filepath.Join(dest, admin.BackupName(time.Now()))
		}
		if err := ensureParentDir(dest); err != nil {
			return fmt.Errorf("creating backup directory: %w", err)
		}

		var spin *ui.Spinner
		if flagOutput != "json" && !flagQuiet {
			spin = ui.NewSpinner(os.Stdout, "Archiving")
		}
		var archived int64
		if err := admin.Backup(cfg.DBPath, cfg.SongsDir, dest, func(current, total int64, name string) {
			archived = current
			if spin != nil {
				spin.Tick()
			}
		}); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		if spin != nil {
			fmt.Print("\r\033[K")
		}

		fi, err := os.Stat(dest)
		if err != nil {
			return err
		}

		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "backup", "archive": dest, "entries": archived, "bytes": fi.Size()})
			return nil
		}
		p.Success(fmt.Sprintf("Backup written to %s (%d entries)", dest, archived))
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupRestore, "restore", "", "Restore from the given archive instead of creating one")
	rootCmd.AddCommand(backupCmd)
}
