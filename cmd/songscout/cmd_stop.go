package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/process"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadCfg()
		p := getPrinter()
		sup := process.New(cfg.HomeDir)

		wasRunning := sup.IsRunning()
		if err := sup.Stop(); err != nil {
			if flagOutput == "json" {
				p.JSON(map[string]any{"ok": false, "error": err.Error()})
			} else {
				p.Error(fmt.Sprintf("stop error: %v", err))
			}
			return err
		}

		// A stale or missing pid file can leave an orphaned listener behind;
		// sweep both configured ports before declaring success.
		if !wasRunning {
			for _, port := range []int{cfg.HTTPPort, cfg.TLSPort} {
				if _, err := process.FindByPort(port); err == nil {
					_ = process.StopByPort(port, 10*time.Second)
				}
			}
		}

		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "stop", "was_running": wasRunning})
			return nil
		}
		if wasRunning {
			p.Success("Server stopped")
		} else {
			p.Info("Server not running")
		}
		fmt.Println()
		fmt.Println(p.Colors.Info("Next steps:"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout start"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (start the server)"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
