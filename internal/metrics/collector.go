package metrics

import (
	"context"
	"io/fs"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/songscout/songscout/internal/store"
)

type System struct {
	CPUPercent float64
	MemUsed    uint64
	MemTotal   uint64
	DiskUsed   uint64
	DiskTotal  uint64
}

type Server struct {
	Running   bool
	PID       int
	Uptime    time.Duration
	HTTPPort  int
	TLSPort   int
	Listening bool
}

type Library struct {
	TotalSongs int
	AudioFiles int
	AudioBytes int64
}

type Snapshot struct {
	System  System
	Server  Server
	Library Library
}

// ProcessInfo is the subset of process supervision the collector needs.
type ProcessInfo interface {
	IsRunning() bool
	PID() (int, bool)
	Uptime() (time.Duration, bool)
}

type Collector struct {
	mu         sync.RWMutex
	lastCPU    float64
	cpuRunning bool
	cpuDone    chan struct{} // Signal to stop CPU collection
}

// New creates a Collector with background CPU monitoring started immediately.
// Use this for long-running processes like the dashboard.
func New() *Collector {
	c := &Collector{
		cpuDone: make(chan struct{}),
	}
	c.mu.Lock()
	c.cpuRunning = true
	c.mu.Unlock()
	go c.updateCPU()
	return c
}

// NewWithoutCPU creates a Collector without starting CPU monitoring.
// Use this for short-lived commands like status.
func NewWithoutCPU() *Collector {
	return &Collector{
		cpuDone: make(chan struct{}),
	}
}

// Start begins background CPU collection (safe to call on any collector).
func (c *Collector) Start() {
	c.mu.Lock()
	if !c.cpuRunning {
		c.cpuRunning = true
		c.mu.Unlock()
		go c.updateCPU()
	} else {
		c.mu.Unlock()
	}
}

// Stop halts background CPU collection.
func (c *Collector) Stop() {
	c.mu.Lock()
	if c.cpuRunning {
		c.cpuRunning = false
		c.mu.Unlock()
		select {
		case c.cpuDone <- struct{}{}:
		default:
		}
	} else {
		c.mu.Unlock()
	}
}

func (c *Collector) updateCPU() {
	for {
		select {
		case <-c.cpuDone:
			c.mu.Lock()
			c.cpuRunning = false
			c.mu.Unlock()
			return
		default:
			if percent, err := cpu.Percent(time.Second, false); err == nil && len(percent) > 0 {
				c.mu.Lock()
				c.lastCPU = percent[0]
				c.mu.Unlock()
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Collect gathers process, library, and system metrics. Any of proc or db may
// be nil; the corresponding sections are left zeroed.
func (c *Collector) Collect(ctx context.Context, proc ProcessInfo, db store.Store, songsDir string, httpPort, tlsPort int) Snapshot {
	snap := Snapshot{}
	snap.Server.HTTPPort = httpPort
	snap.Server.TLSPort = tlsPort

	if proc != nil {
		snap.Server.Running = proc.IsRunning()
		if pid, ok := proc.PID(); ok {
			snap.Server.PID = pid
		}
		if up, ok := proc.Uptime(); ok {
			snap.Server.Uptime = up
		}
	}
	snap.Server.Listening = portListening(httpPort) || portListening(tlsPort)

	if db != nil {
		if total, err := db.TotalSongs(ctx); err == nil {
			snap.Library.TotalSongs = total
		}
	}
	if songsDir != "" {
		snap.Library.AudioFiles, snap.Library.AudioBytes = countAudio(songsDir)
	}

	c.mu.RLock()
	snap.System.CPUPercent = c.lastCPU
	c.mu.RUnlock()

	if vmStat, err := mem.VirtualMemory(); err == nil {
		snap.System.MemUsed = vmStat.Used
		snap.System.MemTotal = vmStat.Total
	}
	if diskStat, err := disk.Usage("/"); err == nil {
		snap.System.DiskUsed = diskStat.Used
		snap.System.DiskTotal = diskStat.Total
	}

	return snap
}

func portListening(port int) bool {
	if port <= 0 {
		return false
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 300*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func countAudio(dir string) (files int, bytes int64) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".wav", ".m4a", ".mp3":
			if info, ierr := d.Info(); ierr == nil {
				files++
				bytes += info.Size()
			}
		}
		return nil
	})
	return files, bytes
}
