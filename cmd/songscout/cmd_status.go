package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/songscout/songscout/internal/exitcodes"
	"github.com/songscout/songscout/internal/metrics"
	ui "github.com/songscout/songscout/internal/ui"
)

// statusResult models the key process and library fields shown by the
// `status` command. It is also used for JSON output when --output=json.
type statusResult struct {
	// Process information
	Running       bool    `json:"running"`
	PID           int     `json:"pid,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds,omitempty"`

	// Listener information
	HTTPPort  int  `json:"http_port"`
	TLSPort   int  `json:"tls_port"`
	Listening bool `json:"listening"`

	// Library
	TotalSongs int   `json:"total_songs"`
	AudioFiles int   `json:"audio_files"`
	AudioBytes int64 `json:"audio_bytes,omitempty"`

	// System metrics
	CPUPercent float64 `json:"cpu_percent,omitempty"`
	MemUsed    uint64  `json:"mem_used,omitempty"`
	MemTotal   uint64  `json:"mem_total,omitempty"`
	DiskUsed   uint64  `json:"disk_used,omitempty"`
	DiskTotal  uint64  `json:"disk_total,omitempty"`

	// Errors
	Error string `json:"error,omitempty"`
}

// computeStatus gathers process, listener, library, and system status.
// Database errors are reported in the Error field rather than failing the
// whole command, so status stays useful when the catalog is broken.
func computeStatus(d *Deps) statusResult {
	res := statusResult{
		HTTPPort: d.Cfg.HTTPPort,
		TLSPort:  d.Cfg.TLSPort,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := d.OpenStore()
	if err != nil {
		res.Error = err.Error()
	} else {
		defer db.Close()
	}

	collector := metrics.NewWithoutCPU()
	snap := collector.Collect(ctx, d.Sup, db, d.Cfg.SongsDir, d.Cfg.HTTPPort, d.Cfg.TLSPort)

	res.Running = snap.Server.Running
	res.PID = snap.Server.PID
	res.UptimeSeconds = snap.Server.Uptime.Seconds()
	res.Listening = snap.Server.Listening
	res.TotalSongs = snap.Library.TotalSongs
	res.AudioFiles = snap.Library.AudioFiles
	res.AudioBytes = snap.Library.AudioBytes
	res.CPUPercent = snap.System.CPUPercent
	res.MemUsed = snap.System.MemUsed
	res.MemTotal = snap.System.MemTotal
	res.DiskUsed = snap.System.DiskUsed
	res.DiskTotal = snap.System.DiskTotal
	return res
}

func printStatusText(res statusResult) {
	c := ui.NewColorConfigFromGlobal()

	fmt.Println(c.Header(" SONGSCOUT STATUS "))
	fmt.Println()

	if res.Running {
		fmt.Printf("%s %s\n", c.Success("●"), c.FormatKeyValue("Server", fmt.Sprintf("running (PID %d)", res.PID)))
		if res.UptimeSeconds > 0 {
			fmt.Printf("  %s\n", c.FormatKeyValue("Uptime", ui.FormatDuration(res.UptimeSeconds)))
		}
	} else {
		fmt.Printf("%s %s\n", c.Error("●"), c.FormatKeyValue("Server", "stopped"))
	}
	fmt.Printf("  %s\n", c.FormatKeyValue("Ports", fmt.Sprintf("http %d / tls %d", res.HTTPPort, res.TLSPort)))
	if res.Listening {
		fmt.Printf("  %s\n", c.FormatKeyValue("Listening", "yes"))
	} else {
		fmt.Printf("  %s\n", c.FormatKeyValue("Listening", "no"))
	}
	fmt.Println()

	fmt.Printf("  %s\n", c.FormatKeyValue("Songs", ui.FormatNumber(int64(res.TotalSongs))))
	fmt.Printf("  %s\n", c.FormatKeyValue("Audio", fmt.Sprintf("%d files, %s", res.AudioFiles, ui.FormatBytes(res.AudioBytes))))
	fmt.Println()

	fmt.Printf("  %s\n", c.FormatKeyValue("CPU", fmt.Sprintf("%.1f%%", res.CPUPercent)))
	if res.MemTotal > 0 {
		fmt.Printf("  %s\n", c.FormatKeyValue("Memory", fmt.Sprintf("%s / %s", ui.FormatBytes(int64(res.MemUsed)), ui.FormatBytes(int64(res.MemTotal)))))
	}
	if res.DiskTotal > 0 {
		fmt.Printf("  %s\n", c.FormatKeyValue("Disk", fmt.Sprintf("%s / %s", ui.FormatBytes(int64(res.DiskUsed)), ui.FormatBytes(int64(res.DiskTotal)))))
	}

	if res.Error != "" {
		fmt.Println()
		fmt.Printf("%s %s\n", c.Error("✗"), c.Error(res.Error))
	}
}

func init() {
	var statusStrict bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps()
			res := computeStatus(d)

			// Strict mode: exit non-zero if issues detected
			if statusStrict && (res.Error != "" || !res.Running || !res.Listening) {
				// Still output the status before exiting
				switch flagOutput {
				case "json":
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					_ = enc.Encode(res)
				case "yaml":
					data, _ := yaml.Marshal(res)
					fmt.Println(string(data))
				case "text", "":
					if !flagQuiet {
						printStatusText(res)
					}
				}
				return exitcodes.ValidationErr("server has issues")
			}

			switch flagOutput {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "yaml":
				data, err := yaml.Marshal(res)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			case "text", "":
				if flagQuiet {
					fmt.Printf("running=%v listening=%v songs=%d\n", res.Running, res.Listening, res.TotalSongs)
				} else {
					printStatusText(res)
				}
				return nil
			default:
				return fmt.Errorf("invalid --output: %s (use json|yaml|text)", flagOutput)
			}
		},
	}
	statusCmd.Flags().BoolVar(&statusStrict, "strict", false, "Exit non-zero if server has issues (not running, not listening, or errors)")
	rootCmd.AddCommand(statusCmd)
}
