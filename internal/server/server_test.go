package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/library"
	"github.com/songscout/songscout/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.OpenSQLite(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.HomeDir = dir
	cfg.SongsDir = filepath.Join(dir, "songs")
	cfg.TmpDir = filepath.Join(dir, "tmp")
	cfg.RecordingsDir = filepath.Join(dir, "recordings")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib := library.New(db, cfg.SongsDir, cfg.TmpDir, log)
	dl := download.New(db, lib, log)
	return New(cfg, db, lib, dl, log), db
}

func TestHandleSongs(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()
	if _, err := db.RegisterSong(ctx, "Breathe", "Pink Floyd", "yt1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RegisterSong(ctx, "Time", "Pink Floyd", "yt2"); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/songs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Total int          `json:"total"`
		Songs []store.Song `json:"songs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Total != 2 || len(got.Songs) != 2 {
		t.Fatalf("total = %d, songs = %d", got.Total, len(got.Songs))
	}
}

func TestHandleDownloadBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	for _, body := range []string{`not json`, `{"url": ""}`, `{"url": "https://example.com/other"}`} {
		resp, err := http.Post(ts.URL+"/api/download", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestHandleFindMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/find", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleErase(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()
	if _, err := db.RegisterSong(ctx, "Echoes", "Pink Floyd", "yt3"); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/erase", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	total, err := db.TotalSongs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("total after erase = %d", total)
	}
}

func TestWebSocketTotalSongs(t *testing.T) {
	srv, db := newTestServer(t)
	ctx := context.Background()
	if _, err := db.RegisterSong(ctx, "Us and Them", "Pink Floyd", "yt4"); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Event: "totalSongs"}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "totalSongs" || msg.Data != "1" {
		t.Fatalf("got %+v", msg)
	}
}

func TestWebSocketUnknownEventIgnored(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Event: "bogus"}); err != nil {
		t.Fatal(err)
	}
	// Connection must survive an unknown event.
	if err := conn.WriteJSON(wsMessage{Event: "totalSongs"}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "totalSongs" {
		t.Fatalf("event = %q", msg.Event)
	}
}

func TestDownloadStatusPayload(t *testing.T) {
	raw := downloadStatus("info", "3 songs found in album.")
	var got map[string]string
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "info" || got["message"] != "3 songs found in album." {
		t.Fatalf("got %v", got)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.HTTPPort = 0 // ephemeral port would need a listener seam; use cancel-before-serve instead

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, false) }()
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not shut down")
	}
}
