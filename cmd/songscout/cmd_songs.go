package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ui "github.com/songscout/songscout/internal/ui"
)

var songsCount bool

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "List the song catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		d := newDeps()
		db, err := d.OpenStore()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		p := d.Printer
		total, err := db.TotalSongs(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting songs: %w", err)
		}

		if songsCount {
			if flagOutput == "json" {
				p.JSON(map[string]any{"total": total})
				return nil
			}
			fmt.Println(total)
			return nil
		}

		songs, err := db.ListSongs(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing songs: %w", err)
		}

		if flagOutput == "json" {
			p.JSON(map[string]any{"total": total, "songs": songs})
			return nil
		}

		if len(songs) == 0 {
			p.Info("Catalog is empty")
			return nil
		}

		headers := []string{"ID", "TITLE", "ARTIST", "YOUTUBE ID"}
		rows := make([][]string, 0, len(songs))
		for _, s := range songs {
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.ID),
				s.Title,
				s.Artist,
				s.YouTubeID,
			})
		}
		fmt.Println(ui.Table(p.Colors, headers, rows, []int{12, 36, 28, 14}))
		fmt.Println(p.Colors.Description(fmt.Sprintf("%d song(s)", total)))
		return nil
	},
}

func init() {
	songsCmd.Flags().BoolVar(&songsCount, "count", false, "Print only the number of songs")
	rootCmd.AddCommand(songsCmd)
}
