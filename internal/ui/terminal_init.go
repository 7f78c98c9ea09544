package ui

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

var terminalInitialized bool

// InitTerminal configures the terminal to prevent escape sequence pollution.
// Must be called before any charmbracelet library (lipgloss, bubbletea) usage:
// termenv queries the terminal background color via OSC 11 and the response
// gets mixed into stdout. Pre-setting COLORFGBG skips the query.
func InitTerminal() {
	if terminalInitialized {
		return
	}
	terminalInitialized = true

	if os.Getenv("COLORFGBG") == "" {
		os.Setenv("COLORFGBG", "0;15")
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		// Disable focus reporting (CSI ? 1004 l) and flush stale responses.
		fmt.Fprint(os.Stdout, "\033[?1004l")
		time.Sleep(20 * time.Millisecond)
		FlushStdinWithTimeout(150 * time.Millisecond)
	}
}

// ResetTerminalAfterTUI cleans up terminal state after a bubbletea program
// exits, so asynchronous terminal responses (cursor position reports, OSC
// responses) don't appear in subsequent output.
func ResetTerminalAfterTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}

	fmt.Fprint(os.Stdout, "\033[?1004l") // focus reporting off
	fmt.Fprint(os.Stdout, "\033[?1003l") // all mouse tracking off
	fmt.Fprint(os.Stdout, "\033[?1000l") // X10 mouse tracking off
	fmt.Fprint(os.Stdout, "\033[?1006l") // SGR mouse mode off
	fmt.Fprint(os.Stdout, "\033[?25h")   // cursor visible
	fmt.Fprint(os.Stdout, "\r")

	time.Sleep(30 * time.Millisecond)
	FlushStdinWithTimeout(150 * time.Millisecond)
}

// FlushStdinWithTimeout reads and discards stdin for the specified duration.
// Only flushes when stdin is a terminal — never reads from pipes or /dev/null
// to avoid consuming piped input.
func FlushStdinWithTimeout(timeout time.Duration) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		return
	}
	defer syscall.SetNonblock(fd, false)

	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, _ := os.Stdin.Read(buf)
		if n <= 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
