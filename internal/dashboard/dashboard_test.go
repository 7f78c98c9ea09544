package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/songscout/songscout/internal/metrics"
)

func TestHumanInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := HumanInt(tt.in); got != tt.want {
			t.Errorf("HumanInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m"},
		{2 * time.Hour, "2h"},
		{26 * time.Hour, "1d2h"},
		{48 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := DurationShort(tt.in); got != tt.want {
			t.Errorf("DurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	if got := truncateWithEllipsis("hello world", 5); got != "hell…" {
		t.Fatalf("got %q", got)
	}
	if got := truncateWithEllipsis("hi", 5); got != "hi" {
		t.Fatalf("got %q", got)
	}
	if got := truncateWithEllipsis("hi", 0); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestBaseComponentCache(t *testing.T) {
	c := &BaseComponent{id: "test"}
	if c.CheckCache("content", 80, 10) {
		t.Fatal("empty cache should miss")
	}
	c.UpdateCache("rendered")
	if !c.CheckCache("content", 80, 10) {
		t.Fatal("same content should hit")
	}
	if c.CheckCache("content", 100, 10) {
		t.Fatal("resize should miss")
	}
	c.UpdateCache("rendered2")
	if c.CheckCache("changed", 100, 10) {
		t.Fatal("changed content should miss")
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewHeader())
	r.Register(NewServerStatus(true))
	r.Register(NewHeader()) // re-register must not duplicate

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].ID() != "header" || all[1].ID() != "server_status" {
		t.Fatalf("order = %s, %s", all[0].ID(), all[1].ID())
	}
}

func TestServerStatusView(t *testing.T) {
	comp := NewServerStatus(true)
	data := Data{}
	data.Metrics.Server = metrics.Server{
		Running:  true,
		PID:      123,
		Uptime:   2 * time.Hour,
		HTTPPort: 5000,
		TLSPort:  4443,
	}
	updated, _ := comp.Update(dataMsg(data), data)
	view := updated.View(60, 8)
	if !strings.Contains(view, "running") {
		t.Fatalf("view missing running state:\n%s", view)
	}
	if !strings.Contains(view, "123") {
		t.Fatalf("view missing pid:\n%s", view)
	}
}

func TestLogViewerScroll(t *testing.T) {
	lv := NewLogViewer()
	data := Data{LogLines: []string{"one", "two", "three", "four"}}
	comp, _ := lv.Update(dataMsg(data), data)
	lv = comp.(*LogViewer)

	comp, _ = lv.Update(tea.KeyMsg{Type: tea.KeyUp}, data)
	lv = comp.(*LogViewer)
	if lv.follow {
		t.Fatal("scrolling up should leave follow mode")
	}
	if lv.offset != 1 {
		t.Fatalf("offset = %d, want 1", lv.offset)
	}

	comp, _ = lv.Update(tea.KeyMsg{Type: tea.KeyDown}, data)
	lv = comp.(*LogViewer)
	if !lv.follow || lv.offset != 0 {
		t.Fatalf("follow = %v offset = %d after scrolling back", lv.follow, lv.offset)
	}
}

func TestTailFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := tailFile(path, 2)
	if len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("got %v", got)
	}
	if tailFile(filepath.Join(t.TempDir(), "missing"), 2) != nil {
		t.Fatal("missing file should yield nil")
	}
}

func TestRenderStatic(t *testing.T) {
	m := New(Options{CLIVersion: "1.0.0"})
	data := Data{LastUpdate: time.Now()}
	data.Metrics.Server = metrics.Server{Running: true, PID: 77, HTTPPort: 5000, TLSPort: 4443}
	data.Metrics.Library.TotalSongs = 1234

	out := m.RenderStatic(data)
	for _, want := range []string{"SONGSCOUT STATUS", "PID: 77", "1,234"} {
		if !strings.Contains(out, want) {
			t.Fatalf("static render missing %q:\n%s", want, out)
		}
	}
}
