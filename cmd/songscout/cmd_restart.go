package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/process"
)

var (
	restartProto string
	restartPort  int
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the background server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadCfg()
		p := getPrinter()
		sup := process.New(cfg.HomeDir)

		proto := restartProto
		if proto == "" && cfg.ServeHTTPS {
			proto = "https"
		}
		port := restartPort
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

		pid, err := sup.Restart(process.StartOpts{
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
				p.Error(fmt.Sprintf("restart error: %v", err))
			}
			return err
		}

		if flagOutput == "json" {
			p.JSON(map[string]any{"ok": true, "action": "restart", "pid": pid, "port": port})
			return nil
		}
		p.Success(fmt.Sprintf("Server restarted (PID %d) on port %d", pid, port))
		fmt.Println()
		fmt.Println(p.Colors.Info("Useful commands:"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout status"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (check server health)"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Command, "  songscout logs"))
		fmt.Println(p.Colors.Apply(p.Colors.Theme.Description, "  (view logs)"))
		return nil
	},
}

func init() {
	restartCmd.Flags().StringVar(&restartProto, "proto", "", "Listener protocol: http|https (default from env, http)")
	restartCmd.Flags().IntVarP(&restartPort, "port", "p", 0, "Listener port (default 5000 http / 4443 https)")
	rootCmd.AddCommand(restartCmd)
}
