package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/process"
)

var (
	startProto string
	startPort  int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadCfg()
		p := getPrinter()
		sup := process.New(cfg.HomeDir)

		if sup.IsRunning() {
			pid, _ := sup.PID()
			if flagOutput == "json" {
				p.JSON(map[string]any{"ok": true, "action": "start", "pid": pid, "already_running": true})
			} else {
				p.Info(fmt.Sprintf("Server already running (PID %d)", pid))
			}
			return nil
		}

		if err := ensureDirs(cfg.HomeDir, cfg.SongsDir, cfg.TmpDir, cfg.RecordingsDir); err != nil {
			return fmt.Errorf("creating directories: %w", err)
		}

		proto := startProto
		if proto == "" && cfg.ServeHTTPS {
			proto = "https"
		}
		port := startPort
		if port == 0 {
			if proto == "https" {
				port = cfg.TLSPort
			} else {
				port = cfg.HTTPPort
			}
		}

		env := map[string]string{
			"HOME_DIR": cfg.HomeDir,
			"DB_TYPE":  cfg.DBDriver,
			"DB_FILE":  cfg.DBPath,
		}
		if proto == "https" {
			env["SERVE_HTTPS"] = "true"
			env["CERT_FILE"] = cfg.CertFile
			env["CERT_KEY"] = cfg.CertKey
		}

		pid, err := sup.Start(process.StartOpts{
			HomeDir: cfg.HomeDir,
			BinPath: findSongscout(),
			Proto:   proto,
			Port:    port,
			Env:     env,
		})
		if err != nil {
			if flagOutput == "json" {
				p.JSON(map[string]any{"ok": false, "error": err.Error()})
			} else {
				p.Error(fmt.Sprintf("start error: %v", err))
			}
			return err
		}

		// Give the listener a moment, then report whether it came up.
		listening := waitForListener(port, 3*time.Second)

		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "start", "pid": pid, "port": port, "listening": listening})
			return nil
		}
		p.Success(fmt.Sprintf("Server started (PID %d) on port %d", pid, port))
		if !listening {
			p.Warn("Listener not up yet; check 'songscout logs' if it stays down")
		}
		fmt.Println()
		fmt.Println(p.Colors.Info("Next steps:"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout status"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (check server health)"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout logs"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (follow server logs)"))
		return nil
	},
}

func waitForListener(port int, timeout time.Duration) bool {
	hostport := "127.0.0.1:" + strconv.Itoa(port)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if process.IsListening(hostport, 300*time.Millisecond) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func init() {
	startCmd.Flags().StringVar(&startProto, "proto", "", "Listener protocol: http|https (default from env, http)")
	startCmd.Flags().IntVarP(&startPort, "port", "p", 0, "Listener port (default 5000 http / 4443 https)")
	rootCmd.AddCommand(startCmd)
}
