package process

import (
	"fmt"
	"syscall"
	"time"

	gopsnet "github.com/shirou/gopsutil/v3/net"
	gopsproc "github.com/shirou/gopsutil/v3/process"
)

// FindByPort returns the PID of the process listening on the given TCP port,
// or 0 if none is found.
func FindByPort(port int) (int, error) {
	conns, err := gopsnet.Connections("tcp")
	if err != nil {
		return 0, fmt.Errorf("list tcp connections: %w", err)
	}
	for _, c := range conns {
		if c.Status == "LISTEN" && c.Laddr.Port == uint32(port) && c.Pid > 0 {
			return int(c.Pid), nil
		}
	}
	return 0, nil
}

// StopByPort terminates whatever process is listening on the given port.
// Used as a fallback when the PID file is missing or stale, mirroring the
// deploy scripts' kill-by-port behavior. SIGTERM first, SIGKILL after the
// grace period.
func StopByPort(port int, grace time.Duration) error {
	pid, err := FindByPort(port)
	if err != nil {
		return err
	}
	if pid == 0 {
		return nil
	}

	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("inspect process %d: %w", pid, err)
	}
	if err := p.SendSignal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := p.Kill(); err != nil && processAlive(pid) {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}
