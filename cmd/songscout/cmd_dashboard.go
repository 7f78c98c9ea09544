package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/songscout/songscout/internal/dashboard"
	"github.com/songscout/songscout/internal/process"
	"github.com/songscout/songscout/internal/store"
	ui "github.com/songscout/songscout/internal/ui"
)

// dashboardCoreDeps holds injectable dependencies for runDashboardCmdCore.
type dashboardCoreDeps struct {
	isTTY          func() bool
	runStatic      func(ctx context.Context, opts dashboard.Options) error
	runInteractive func(opts dashboard.Options) error
}

// runDashboardCmdCore contains the testable logic for the dashboard RunE handler.
func runDashboardCmdCore(ctx context.Context, opts dashboard.Options, deps dashboardCoreDeps) error {
	if !deps.isTTY() {
		if flagDebug {
			fmt.Fprintln(os.Stderr, "Debug: Non-TTY detected, using static mode")
		}
		return deps.runStatic(ctx, opts)
	}

	if flagDebug {
		fmt.Fprintln(os.Stderr, "Debug: TTY detected, using interactive mode")
	}
	return deps.runInteractive(opts)
}

// createDashboardCmd builds the dashboard command: an interactive TUI for
// monitoring the server, library, and host.
func createDashboardCmd() *cobra.Command {
	var (
		refreshInterval time.Duration
		fetchTimeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive dashboard for monitoring the server",
		Long: `Launch an interactive terminal dashboard showing live metrics:

  • Server process status (running/stopped, PID, uptime)
  • Library size and recently added songs
  • Host CPU, memory, and disk usage
  • Tail of the server log

The dashboard auto-refreshes every 2 seconds by default. Press 'h' for help.

For non-interactive environments (CI/pipes), dashboard automatically falls
back to a static text snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadCfg()

			var db store.Store
			if s, err := store.Open(cfg.DBDriver, cfg.DBPath); err == nil {
				db = s
				defer s.Close()
			}

			opts := dashboard.Options{
				Config:          cfg,
				RefreshInterval: refreshInterval,
				FetchTimeout:    fetchTimeout,
				NoColor:         flagNoColor,
				NoEmoji:         flagNoEmoji,
				CLIVersion:      Version,
				Supervisor:      process.New(cfg.HomeDir),
				DB:              db,
			}

			return runDashboardCmdCore(cmd.Context(), opts, dashboardCoreDeps{
				isTTY:          func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
				runStatic:      runDashboardStatic,
				runInteractive: runDashboardInteractive,
			})
		},
	}

	cmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 2*time.Second, "Dashboard refresh interval")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 10*time.Second, "Metrics fetch timeout")

	return cmd
}

// runDashboardStatic performs a single fetch and prints static output for non-TTY.
func runDashboardStatic(ctx context.Context, opts dashboard.Options) error {
	m := dashboard.New(opts)
	data, err := m.FetchDataOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Println(m.RenderStatic(data))
	return nil
}

// runDashboardInteractive runs the full-screen bubbletea program.
func runDashboardInteractive(opts dashboard.Options) error {
	m := dashboard.New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	ui.ResetTerminalAfterTUI()
	return err
}

func init() {
	rootCmd.AddCommand(createDashboardCmd())
}
