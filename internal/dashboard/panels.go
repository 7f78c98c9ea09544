package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/songscout/songscout/internal/ui"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func renderBox(title, content string, width, height int) string {
	inner := width - 4
	if inner < 1 {
		inner = 1
	}
	head := titleStyle.Render(truncateWithEllipsis(strings.ToUpper(title), inner))
	body := lipgloss.JoinVertical(lipgloss.Left, head, content)
	return boxStyle.Width(width - 2).Height(height - 2).Render(body)
}

// Header shows identity, version, and the last fetch state.

type Header struct {
	BaseComponent
	data Data
}

func NewHeader() *Header {
	return &Header{BaseComponent: BaseComponent{id: "header", title: "songscout", minH: 3}}
}

func (h *Header) Update(msg tea.Msg, data Data) (Component, tea.Cmd) {
	if _, ok := msg.(dataMsg); ok {
		h.data = data
	}
	if _, ok := msg.(dataErrMsg); ok {
		h.data = data
	}
	return h, nil
}

func (h *Header) View(width, height int) string {
	var parts []string
	parts = append(parts, titleStyle.Render("songscout")+labelStyle.Render(" "+h.data.CLIVersion))
	if h.data.UpdateInfo.Available {
		parts = append(parts, okStyle.Render("update available: v"+h.data.UpdateInfo.LatestVersion))
	}
	if h.data.Err != nil {
		parts = append(parts, errStyle.Render(truncateWithEllipsis("fetch error: "+h.data.Err.Error(), width-6)))
	} else if !h.data.LastUpdate.IsZero() {
		parts = append(parts, dimStyle.Render("updated "+h.data.LastUpdate.Format("15:04:05")))
	}
	content := strings.Join(parts, labelStyle.Render("  │  "))
	if h.CheckCache(content, width, height) {
		return h.GetCached()
	}
	rendered := renderBox("", content, width, height)
	h.UpdateCache(rendered)
	return rendered
}

// ServerStatus shows the supervised server process.

type ServerStatus struct {
	BaseComponent
	icons Icons
	data  Data
}

func NewServerStatus(noEmoji bool) *ServerStatus {
	return &ServerStatus{
		BaseComponent: BaseComponent{id: "server_status", title: "Server", minH: 7},
		icons:         NewIcons(noEmoji),
	}
}

func (s *ServerStatus) Update(msg tea.Msg, data Data) (Component, tea.Cmd) {
	switch msg.(type) {
	case dataMsg, dataErrMsg:
		s.data = data
	}
	return s, nil
}

func (s *ServerStatus) View(width, height int) string {
	srv := s.data.Metrics.Server
	var lines []string
	if srv.Running {
		lines = append(lines, okStyle.Render(s.icons.OK+" running")+labelStyle.Render(fmt.Sprintf("  pid %d", srv.PID)))
		if srv.Uptime > 0 {
			lines = append(lines, labelStyle.Render("uptime  ")+DurationShort(srv.Uptime))
		}
	} else {
		lines = append(lines, errStyle.Render(s.icons.Err+" stopped"))
	}
	listen := s.icons.Err
	if srv.Listening {
		listen = s.icons.OK
	}
	lines = append(lines, labelStyle.Render("ports   ")+fmt.Sprintf("http %d / tls %d %s", srv.HTTPPort, srv.TLSPort, listen))

	content := strings.Join(lines, "\n")
	if s.CheckCache(content, width, height) {
		return s.GetCached()
	}
	rendered := renderBox(s.title, content, width, height)
	s.UpdateCache(rendered)
	return rendered
}

// LibraryStatus shows indexed songs and audio on disk.

type LibraryStatus struct {
	BaseComponent
	icons Icons
	data  Data
}

func NewLibraryStatus(noEmoji bool) *LibraryStatus {
	return &LibraryStatus{
		BaseComponent: BaseComponent{id: "library_status", title: "Library", minH: 7},
		icons:         NewIcons(noEmoji),
	}
}

func (l *LibraryStatus) Update(msg tea.Msg, data Data) (Component, tea.Cmd) {
	switch msg.(type) {
	case dataMsg, dataErrMsg:
		l.data = data
	}
	return l, nil
}

func (l *LibraryStatus) View(width, height int) string {
	lib := l.data.Metrics.Library
	var lines []string
	lines = append(lines, labelStyle.Render("songs   ")+HumanInt(int64(lib.TotalSongs)))
	lines = append(lines, labelStyle.Render("audio   ")+fmt.Sprintf("%d files, %s", lib.AudioFiles, ui.FormatBytes(lib.AudioBytes)))
	for _, song := range l.data.Songs {
		entry := fmt.Sprintf("%s %s — %s", l.icons.Note, song.Title, song.Artist)
		lines = append(lines, dimStyle.Render(truncateWithEllipsis(entry, width-6)))
	}

	content := strings.Join(lines, "\n")
	if l.CheckCache(content, width, height) {
		return l.GetCached()
	}
	rendered := renderBox(l.title, content, width, height)
	l.UpdateCache(rendered)
	return rendered
}

// SystemStatus shows host CPU, memory, and disk.

type SystemStatus struct {
	BaseComponent
	data Data
}

func NewSystemStatus(noEmoji bool) *SystemStatus {
	return &SystemStatus{
		BaseComponent: BaseComponent{id: "system_status", title: "System", minH: 7},
	}
}

func (s *SystemStatus) Update(msg tea.Msg, data Data) (Component, tea.Cmd) {
	switch msg.(type) {
	case dataMsg, dataErrMsg:
		s.data = data
	}
	return s, nil
}

func (s *SystemStatus) View(width, height int) string {
	sys := s.data.Metrics.System
	var lines []string
	lines = append(lines, labelStyle.Render("cpu     ")+fmt.Sprintf("%.1f%%", sys.CPUPercent))
	if sys.MemTotal > 0 {
		lines = append(lines, labelStyle.Render("memory  ")+fmt.Sprintf("%s / %s",
			ui.FormatBytes(int64(sys.MemUsed)), ui.FormatBytes(int64(sys.MemTotal))))
	}
	if sys.DiskTotal > 0 {
		lines = append(lines, labelStyle.Render("disk    ")+fmt.Sprintf("%s / %s",
			ui.FormatBytes(int64(sys.DiskUsed)), ui.FormatBytes(int64(sys.DiskTotal))))
	}

	content := strings.Join(lines, "\n")
	if s.CheckCache(content, width, height) {
		return s.GetCached()
	}
	rendered := renderBox(s.title, content, width, height)
	s.UpdateCache(rendered)
	return rendered
}

// LogViewer shows the tail of the server log with simple scrolling.

type LogViewer struct {
	BaseComponent
	lines  []string
	offset int // lines scrolled up from the bottom
	follow bool
}

func NewLogViewer() *LogViewer {
	return &LogViewer{
		BaseComponent: BaseComponent{id: "log_viewer", title: "Log", minH: 8},
		follow:        true,
	}
}

func (l *LogViewer) Update(msg tea.Msg, data Data) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case dataMsg, dataErrMsg:
		l.lines = data.LogLines
		if l.follow {
			l.offset = 0
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			l.follow = false
			if l.offset < len(l.lines)-1 {
				l.offset++
			}
		case "down":
			if l.offset > 0 {
				l.offset--
			}
			if l.offset == 0 {
				l.follow = true
			}
		case "f":
			l.follow = !l.follow
			if l.follow {
				l.offset = 0
			}
		case "l":
			l.follow = true
			l.offset = 0
		}
	}
	return l, nil
}

func (l *LogViewer) View(width, height int) string {
	visible := height - 3
	if visible < 1 {
		visible = 1
	}
	end := len(l.lines) - l.offset
	if end < 0 {
		end = 0
	}
	start := end - visible
	if start < 0 {
		start = 0
	}
	var lines []string
	for _, line := range l.lines[start:end] {
		lines = append(lines, truncateWithEllipsis(line, width-6))
	}
	if len(lines) == 0 {
		lines = append(lines, dimStyle.Render("no log output yet"))
	}

	title := l.title
	if !l.follow {
		title += fmt.Sprintf(" (scrolled %d)", l.offset)
	}
	content := strings.Join(lines, "\n")
	if l.CheckCache(title+content, width, height) {
		return l.GetCached()
	}
	rendered := renderBox(title, content, width, height)
	l.UpdateCache(rendered)
	return rendered
}
