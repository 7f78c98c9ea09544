package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/spf13/cobra"

	"github.com/songscout/songscout/internal/exitcodes"
	ui "github.com/songscout/songscout/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the songscout setup",
	Long: `Performs health checks on your songscout setup including:
- Server process status and listener reachability
- Database accessibility
- External tools (ffmpeg, ffprobe, yt-dlp)
- Disk space and home directory permissions
- TLS certificate files when HTTPS is enabled`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDoctor,
}

type checkResult struct {
	Name    string
	Status  string // "pass", "warn", "fail"
	Message string
	Details []string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	d := newDeps()
	c := ui.NewColorConfigFromGlobal()

	fmt.Println(c.Header(" SONGSCOUT HEALTH CHECK "))
	fmt.Println()

	results := []checkResult{}
	results = append(results, checkServerProcess(d, c))
	results = append(results, checkListener(d, c))
	results = append(results, checkDatabase(d, c))
	results = append(results, checkTools(d, c))
	results = append(results, checkDiskSpace(d, c))
	results = append(results, checkPermissions(d, c))
	if d.Cfg.ServeHTTPS {
		results = append(results, checkTLSFiles(d, c))
	}

	fmt.Println()
	fmt.Println(c.Separator(60))

	passed, warned, failed := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "pass":
			passed++
		case "warn":
			warned++
		case "fail":
			failed++
		}
	}

	summary := fmt.Sprintf("Checks: %d passed, %d warnings, %d failed", passed, warned, failed)
	if failed > 0 {
		fmt.Println(c.Error("✗ " + summary))
		return exitcodes.ValidationErr("")
	} else if warned > 0 {
		fmt.Println(c.Warning("⚠ " + summary))
	} else {
		fmt.Println(c.Success("✓ " + summary))
	}

	return nil
}

func checkServerProcess(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "Server Process"}

	if d.Sup.IsRunning() {
		if pid, ok := d.Sup.PID(); ok {
			result.Status = "pass"
			result.Message = fmt.Sprintf("Server running (PID %d)", pid)
		} else {
			result.Status = "pass"
			result.Message = "Server running"
		}
	} else {
		result.Status = "warn"
		result.Message = "Server not running"
		result.Details = []string{"Run 'songscout start' to start the server"}
	}

	printCheck(result, c)
	return result
}

func checkListener(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "Listener"}

	port := d.Cfg.HTTPPort
	if d.Cfg.ServeHTTPS {
		port = d.Cfg.TLSPort
	}
	hostport := "127.0.0.1:" + strconv.Itoa(port)

	if d.PortCheck(hostport, 500*time.Millisecond) {
		result.Status = "pass"
		result.Message = fmt.Sprintf("Port %d accepting connections", port)
	} else if d.Sup.IsRunning() {
		result.Status = "fail"
		result.Message = fmt.Sprintf("Server running but port %d not reachable", port)
		result.Details = []string{"Check logs: songscout logs"}
	} else {
		result.Status = "warn"
		result.Message = fmt.Sprintf("Port %d not listening (server stopped)", port)
	}

	printCheck(result, c)
	return result
}

func checkDatabase(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "Database"}

	db, err := d.OpenStore()
	if err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("Cannot open database: %v", err)
		result.Details = []string{"Run 'songscout setup' to initialize it"}
		printCheck(result, c)
		return result
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	total, err := db.TotalSongs(ctx)
	if err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("Database query failed: %v", err)
	} else {
		result.Status = "pass"
		result.Message = fmt.Sprintf("Database accessible (%d songs)", total)
	}

	printCheck(result, c)
	return result
}

func checkTools(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "External Tools"}

	var missing []string
	for _, tool := range requiredTools {
		if _, err := d.Runner.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	if len(missing) == 0 {
		result.Status = "pass"
		result.Message = "ffmpeg, ffprobe, and yt-dlp found"
	} else {
		result.Status = "fail"
		result.Message = fmt.Sprintf("Missing tools: %v", missing)
		result.Details = []string{"Install them with your package manager (e.g. apt install ffmpeg yt-dlp)"}
	}

	printCheck(result, c)
	return result
}

func checkDiskSpace(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "Disk Space"}

	usage, err := disk.Usage(d.Cfg.HomeDir)
	if err != nil {
		usage, err = disk.Usage("/")
	}
	if err != nil {
		result.Status = "warn"
		result.Message = fmt.Sprintf("Cannot read disk usage: %v", err)
		printCheck(result, c)
		return result
	}

	freeGB := float64(usage.Free) / (1 << 30)
	switch {
	case freeGB < 1:
		result.Status = "fail"
		result.Message = fmt.Sprintf("Only %.1f GB free", freeGB)
		result.Details = []string{"Downloads and recordings need scratch space"}
	case freeGB < 5:
		result.Status = "warn"
		result.Message = fmt.Sprintf("%.1f GB free (getting low)", freeGB)
	default:
		result.Status = "pass"
		result.Message = fmt.Sprintf("%.1f GB free (%.0f%% used)", freeGB, usage.UsedPercent)
	}

	printCheck(result, c)
	return result
}

func checkPermissions(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "Permissions"}

	probe := d.Cfg.HomeDir + "/.perm-check"
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Status = "fail"
		result.Message = fmt.Sprintf("Home directory not writable: %v", err)
		result.Details = []string{"Run 'songscout setup' or fix ownership of " + d.Cfg.HomeDir}
	} else {
		_ = os.Remove(probe)
		result.Status = "pass"
		result.Message = "Home directory writable"
	}

	printCheck(result, c)
	return result
}

func checkTLSFiles(d *Deps, c *ui.ColorConfig) checkResult {
	result := checkResult{Name: "TLS Certificates"}

	_, certErr := os.Stat(d.Cfg.CertFile)
	_, keyErr := os.Stat(d.Cfg.CertKey)
	switch {
	case certErr != nil:
		result.Status = "fail"
		result.Message = fmt.Sprintf("Certificate not readable: %s", d.Cfg.CertFile)
	case keyErr != nil:
		result.Status = "fail"
		result.Message = fmt.Sprintf("Certificate key not readable: %s", d.Cfg.CertKey)
	default:
		result.Status = "pass"
		result.Message = "Certificate and key readable"
	}

	printCheck(result, c)
	return result
}

func printCheck(r checkResult, c *ui.ColorConfig) {
	icon := ""
	msg := ""

	switch r.Status {
	case "pass":
		icon = c.Success("✓")
		msg = c.Success(r.Message)
	case "warn":
		icon = c.Warning("⚠")
		msg = c.Warning(r.Message)
	case "fail":
		icon = c.Error("✗")
		msg = c.Error(r.Message)
	}

	fmt.Printf("%s %s: %s\n", icon, c.Apply(c.Theme.Header, r.Name), msg)

	for _, detail := range r.Details {
		fmt.Printf("  %s %s\n", c.Apply(c.Theme.Pending, "→"), detail)
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
