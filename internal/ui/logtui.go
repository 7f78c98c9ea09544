package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/nxadm/tail"
	"golang.org/x/term"
)

// LogUIOptions configures the interactive log viewer.
type LogUIOptions struct {
	LogPath    string // path to songscout.log
	BgKey      byte   // key to background (default: 'b')
	ShowFooter bool   // enable footer (default: true)
	NoColor    bool   // respect --no-color
}

// RunLogUI starts the interactive log viewer with a sticky footer.
// In TUI mode:
//   - Ctrl+C stops the server and exits
//   - BgKey (default 'b') detaches the viewer while keeping the server running
//
// Automatically falls back to plain tail for non-TTY environments.
func RunLogUI(ctx context.Context, opts LogUIOptions) error {
	stdin := int(os.Stdin.Fd())
	stdout := int(os.Stdout.Fd())
	stdinTTY := term.IsTerminal(stdin)
	stdoutTTY := term.IsTerminal(stdout)

	if !stdinTTY || !stdoutTTY || !opts.ShowFooter {
		return tailFollow(ctx, opts.LogPath)
	}

	rows, cols, err := term.GetSize(stdout)
	if err != nil || rows < 5 || cols < 20 {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot detect terminal size: %v; showing plain logs.\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Terminal too small for TUI (rows=%d cols=%d, need 5x20+); showing plain logs.\n", rows, cols)
		}
		return tailFollow(ctx, opts.LogPath)
	}

	oldState, err := term.MakeRaw(stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Cannot enable TUI mode; showing plain logs.")
		return tailFollow(ctx, opts.LogPath)
	}

	// Restore terminal on all exit paths.
	defer func() {
		term.Restore(stdin, oldState)
		fmt.Fprint(os.Stdout, "\x1b[?7h") // re-enable line wrap
	}()

	fmt.Fprint(os.Stdout, "\x1b[?7l") // disable line wrap

	// \r\n in raw mode.
	fmt.Fprint(os.Stdout, "\r\n")
	fmt.Fprintf(os.Stdout, "Following logs - Ctrl+C stops the server | '%c' detaches\r\n", opts.BgKey)
	fmt.Fprint(os.Stdout, strings.Repeat("-", minInt(cols, 80))+"\r\n")
	fmt.Fprint(os.Stdout, "\r\n")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SIGINT arrives via raw stdin as Ctrl+C.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for range sigCh {
			cancel()
		}
	}()

	logErr := make(chan error, 1)
	go func() {
		logErr <- streamLogs(ctx, opts.LogPath, os.Stdout)
	}()

	keyCh := listenKeys(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-logErr:
			if err != nil && err != context.Canceled {
				fmt.Fprintf(os.Stdout, "\r\nLog streaming error: %v\r\n", err)
				time.Sleep(1 * time.Second)
			}
			return err

		case key := <-keyCh:
			switch key {
			case 3: // Ctrl+C
				fmt.Fprint(os.Stdout, "\r\nStopping server… ")
				_ = stopServer(ctx, os.Stdout)
				return nil

			case opts.BgKey, byte(unicode.ToUpper(rune(opts.BgKey))):
				fmt.Fprint(os.Stdout, "\r\nDetaching to background…\r\n")
				return nil
			}
		}
	}
}

// stopServer invokes "songscout stop" using the same binary.
func stopServer(ctx context.Context, w io.Writer) error {
	exe, err := os.Executable()
	if err != nil {
		exe = "songscout" // fallback to PATH
	}

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(c, exe, "stop")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(w, "failed (%v)\n", err)
		return err
	}
	fmt.Fprint(w, "done\n")
	return nil
}

// listenKeys reads keypresses from stdin with debouncing.
func listenKeys(ctx context.Context) <-chan byte {
	keyCh := make(chan byte, 16)
	go func() {
		defer close(keyCh)
		buf := make([]byte, 1)
		lastKey := time.Now()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				return
			}

			// No debounce for Ctrl+C.
			if buf[0] == 3 {
				keyCh <- buf[0]
				continue
			}

			if time.Since(lastKey) < 150*time.Millisecond {
				continue
			}
			lastKey = time.Now()
			keyCh <- buf[0]
		}
	}()
	return keyCh
}

// streamLogs follows the log file with rotation support.
func streamLogs(ctx context.Context, logPath string, out io.Writer) error {
	// Wait for log file creation (up to 5 seconds).
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(logPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	t, err := tail.TailFile(logPath, tail.Config{
		Follow:    true,
		ReOpen:    true, // handle rotation
		MustExist: false,
	})
	if err != nil {
		return fmt.Errorf("failed to tail log: %w", err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-t.Lines:
			if line == nil {
				return nil
			}
			if line.Err != nil {
				return line.Err
			}
			fmt.Fprintf(out, "%s\r\n", line.Text)
		}
	}
}

// tailFollow is a simple fallback for non-TTY environments. It shells out to
// tail with -F, falling back to -f for BSD/macOS.
func tailFollow(ctx context.Context, logPath string) error {
	cmd := exec.CommandContext(ctx, "tail", "-F", logPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		cmd = exec.CommandContext(ctx, "tail", "-f", logPath)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
