// Package dashboard renders a live terminal view of the songscout server:
// process state, library size, host metrics, and the tail of the server log.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/songscout/songscout/internal/metrics"
	"github.com/songscout/songscout/internal/ui"
	"github.com/songscout/songscout/internal/update"
)

const (
	recentSongs = 5
	logTail     = 200
)

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Help    key.Binding
	Up      key.Binding
	Down    key.Binding
	Follow  key.Binding
	End     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Refresh, k.Help},
		{k.Up, k.Down, k.Follow, k.End},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
		Help:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "toggle help")),
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up logs")),
		Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down logs")),
		Follow:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle follow mode")),
		End:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "jump to latest")),
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Dashboard is the main Bubble Tea model.
type Dashboard struct {
	opts     Options
	data     Data
	lastOK   time.Time
	err      error
	registry *Registry
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	showHelp bool
	loading  bool

	fetchCancel context.CancelFunc

	collector *metrics.Collector
}

// New creates a Dashboard instance.
func New(opts Options) *Dashboard {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}

	registry := NewRegistry()
	registry.Register(NewHeader())
	registry.Register(NewServerStatus(opts.NoEmoji))
	registry.Register(NewLibraryStatus(opts.NoEmoji))
	registry.Register(NewSystemStatus(opts.NoEmoji))
	registry.Register(NewLogViewer())

	s := spinner.New()
	s.Spinner = spinner.Dot

	return &Dashboard{
		opts:      opts,
		registry:  registry,
		keys:      newKeyMap(),
		help:      help.New(),
		spinner:   s,
		loading:   true,
		collector: metrics.New(),
	}
}

func (m *Dashboard) Init() tea.Cmd {
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return tea.Batch(
		m.spinner.Tick,
		m.fetchCmd(),
		tickCmd(m.opts.RefreshInterval),
	)
}

func (m *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case fetchStartedMsg:
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		m.fetchCancel = msg.cancel
		return m, nil

	case tickMsg:
		// Only tickMsg schedules the next tick; only one fetch runs at a time.
		cmds := []tea.Cmd{tickCmd(m.opts.RefreshInterval)}
		if m.fetchCancel == nil {
			cmds = append(cmds, m.fetchCmd())
		}
		return m, tea.Batch(cmds...)

	case dataMsg:
		m.data = Data(msg)
		m.lastOK = time.Now()
		m.err = nil
		m.loading = false
		m.fetchCancel = nil
		return m, tea.Batch(m.registry.UpdateAll(msg, m.data)...)

	case dataErrMsg:
		m.err = msg.err
		m.data.Err = msg.err
		m.loading = false
		m.fetchCancel = nil
		return m, tea.Batch(m.registry.UpdateAll(msg, m.data)...)

	case forceRefreshMsg:
		return m, m.fetchCmd()

	case toggleHelpMsg:
		m.showHelp = !m.showHelp
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Dashboard) View() string {
	if m.width <= 0 || m.height <= 1 {
		return ""
	}

	if m.loading {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(2, 4).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				m.spinner.View(),
				lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Render("LOADING"),
				"",
				lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Collecting server status..."),
			))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(1, 2).
				Render(helpText()))
	}

	headerH, panelH := 3, 8
	logH := m.height - headerH - panelH - 1
	if logH < 8 {
		logH = 8
	}
	half := m.width / 2
	third := m.width / 3

	header := m.registry.Get("header").View(m.width, headerH)
	logs := m.registry.Get("log_viewer").View(m.width, logH)

	// System joins the middle row only on wide terminals.
	var middle string
	if m.width >= 120 {
		middle = lipgloss.JoinHorizontal(lipgloss.Top,
			m.registry.Get("server_status").View(third, panelH),
			m.registry.Get("library_status").View(third, panelH),
			m.registry.Get("system_status").View(m.width-2*third, panelH),
		)
	} else {
		middle = lipgloss.JoinHorizontal(lipgloss.Top,
			m.registry.Get("server_status").View(half, panelH),
			m.registry.Get("library_status").View(m.width-half, panelH),
		)
	}

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render("h help | r refresh | f follow logs | q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, middle, logs, footer)
}

func helpText() string {
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	cmd := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	var b strings.Builder
	b.WriteString(section.Render("Keys") + "\n")
	b.WriteString("  " + cmd.Render("r") + "        " + desc.Render("refresh now") + "\n")
	b.WriteString("  " + cmd.Render("↑/↓") + "      " + desc.Render("scroll logs") + "\n")
	b.WriteString("  " + cmd.Render("f") + "        " + desc.Render("toggle log follow") + "\n")
	b.WriteString("  " + cmd.Render("l") + "        " + desc.Render("jump to latest log line") + "\n")
	b.WriteString("  " + cmd.Render("q") + "        " + desc.Render("quit") + "\n\n")
	b.WriteString(section.Render("Commands") + "\n")
	b.WriteString("  " + cmd.Render("songscout status") + "    " + desc.Render("one-shot status") + "\n")
	b.WriteString("  " + cmd.Render("songscout start") + "     " + desc.Render("start the server") + "\n")
	b.WriteString("  " + cmd.Render("songscout stop") + "      " + desc.Render("stop the server") + "\n")
	b.WriteString("  " + cmd.Render("songscout logs") + "      " + desc.Render("follow the server log") + "\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true).
		Render("Press 'q', 'h', or 'esc' to close help"))
	return b.String()
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q", "h", "esc":
			return m, func() tea.Msg { return toggleHelpMsg{} }
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.fetchCancel != nil {
			m.fetchCancel()
		}
		m.collector.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		return m, func() tea.Msg { return forceRefreshMsg{} }

	case key.Matches(msg, m.keys.Help):
		return m, func() tea.Msg { return toggleHelpMsg{} }

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.Follow), key.Matches(msg, m.keys.End):
		return m, tea.Batch(m.registry.UpdateAll(msg, m.data)...)
	}

	return m, nil
}

func (m *Dashboard) fetchCmd() tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.FetchTimeout)
	return tea.Sequence(
		func() tea.Msg { return fetchStartedMsg{cancel: cancel} },
		func() tea.Msg {
			defer cancel()
			data, err := m.fetchData(ctx)
			if err != nil {
				return dataErrMsg{err: err}
			}
			return dataMsg(data)
		},
	)
}

// fetchData does the blocking I/O behind a refresh.
func (m *Dashboard) fetchData(ctx context.Context) (Data, error) {
	data := Data{LastUpdate: time.Now(), CLIVersion: m.opts.CLIVersion}

	cfg := m.opts.Config
	data.Metrics = m.collector.Collect(ctx, m.opts.Supervisor, m.opts.DB, cfg.SongsDir, cfg.HTTPPort, cfg.TLSPort)

	if m.opts.DB != nil {
		if songs, err := m.opts.DB.ListSongs(ctx); err == nil {
			if len(songs) > recentSongs {
				songs = songs[len(songs)-recentSongs:]
			}
			data.Songs = songs
		}
	}

	data.LogLines = tailFile(cfg.LogFile(), logTail)

	if entry, err := update.LoadCache(cfg.HomeDir); err == nil && update.IsCacheValid(entry) {
		data.UpdateInfo.Available = entry.UpdateAvailable
		data.UpdateInfo.LatestVersion = entry.LatestVersion
	}

	return data, nil
}

// tailFile returns up to n trailing lines of path, empty when unreadable.
func tailFile(path string, n int) []string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// RenderStatic renders a plain-text snapshot for non-TTY output.
func (m *Dashboard) RenderStatic(data Data) string {
	var b strings.Builder

	b.WriteString("=== SONGSCOUT STATUS ===\n\n")

	b.WriteString("SERVER:\n")
	if data.Metrics.Server.Running {
		b.WriteString(fmt.Sprintf("  Status: Running (PID: %d)\n", data.Metrics.Server.PID))
		if data.Metrics.Server.Uptime > 0 {
			b.WriteString(fmt.Sprintf("  Uptime: %s\n", DurationShort(data.Metrics.Server.Uptime)))
		}
	} else {
		b.WriteString("  Status: Stopped\n")
	}
	b.WriteString(fmt.Sprintf("  Ports: http %d / tls %d\n", data.Metrics.Server.HTTPPort, data.Metrics.Server.TLSPort))
	b.WriteString(fmt.Sprintf("  Listening: %v\n\n", data.Metrics.Server.Listening))

	b.WriteString("LIBRARY:\n")
	b.WriteString(fmt.Sprintf("  Songs: %s\n", HumanInt(int64(data.Metrics.Library.TotalSongs))))
	b.WriteString(fmt.Sprintf("  Audio: %d files, %s\n\n",
		data.Metrics.Library.AudioFiles, ui.FormatBytes(data.Metrics.Library.AudioBytes)))

	b.WriteString("SYSTEM:\n")
	b.WriteString(fmt.Sprintf("  CPU: %.1f%%\n", data.Metrics.System.CPUPercent))
	if data.Metrics.System.MemTotal > 0 {
		b.WriteString(fmt.Sprintf("  Memory: %s / %s\n",
			ui.FormatBytes(int64(data.Metrics.System.MemUsed)), ui.FormatBytes(int64(data.Metrics.System.MemTotal))))
	}
	if data.Metrics.System.DiskTotal > 0 {
		b.WriteString(fmt.Sprintf("  Disk: %s / %s\n",
			ui.FormatBytes(int64(data.Metrics.System.DiskUsed)), ui.FormatBytes(int64(data.Metrics.System.DiskTotal))))
	}

	b.WriteString(fmt.Sprintf("\nLast Update: %s\n", data.LastUpdate.Format("2006-01-02 15:04:05 MST")))
	return b.String()
}

// FetchDataOnce performs a single blocking data fetch for non-TTY mode.
func (m *Dashboard) FetchDataOnce(ctx context.Context) (Data, error) {
	defer m.collector.Stop()
	return m.fetchData(ctx)
}
