package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/library"
	"github.com/songscout/songscout/internal/match"
	"github.com/songscout/songscout/internal/store"
)

const maxSocketMatches = 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 4096,
	// Browser clients connect from arbitrary pages.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope both directions use on the socket.
type wsMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// wsConn serializes writes; handlers emit from the read loop but download
// progress may come from multiple goroutines later.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) emit(event, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	_ = c.conn.WriteJSON(wsMessage{Event: event, Data: data})
}

// downloadStatus builds the JSON payload for downloadStatus events.
func downloadStatus(statusType, message string) string {
	data, err := json.Marshal(map[string]string{
		"type":    statusType,
		"message": message,
	})
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sock := &wsConn{conn: conn}
	ctx := r.Context()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Error("websocket read failed", "error", err)
			}
			return
		}

		switch msg.Event {
		case "totalSongs":
			s.wsTotalSongs(ctx, sock)
		case "newDownload":
			s.wsSongDownload(ctx, sock, msg.Data)
		case "newRecording":
			s.wsNewRecording(ctx, sock, msg.Data)
		default:
			s.log.Info("ignoring unknown socket event", "event", msg.Event)
		}
	}
}

func (s *Server) wsTotalSongs(ctx context.Context, sock *wsConn) {
	total, err := s.db.TotalSongs(ctx)
	if err != nil {
		s.log.Error("error getting total songs", "error", err)
		return
	}
	sock.emit("totalSongs", strconv.Itoa(total))
}

func (s *Server) wsSongDownload(ctx context.Context, sock *wsConn, spotifyURL string) {
	if strings.Contains(spotifyURL, "album") {
		tracks, err := download.AlbumInfo(spotifyURL)
		if err != nil {
			s.reportInfoError(sock, err, "error getting album info")
			return
		}
		sock.emit("downloadStatus", downloadStatus("info", fmt.Sprintf("%d songs found in album.", len(tracks))))

		total, err := s.dl.DownloadAlbum(ctx, spotifyURL, s.cfg.SongsDir)
		if err != nil {
			sock.emit("downloadStatus", downloadStatus("error", "Couldn't download album."))
			s.log.Error("failed to download album", "error", err)
			return
		}
		sock.emit("downloadStatus", downloadStatus("success", fmt.Sprintf("%d songs downloaded from album", total)))
	}

	if strings.Contains(spotifyURL, "playlist") {
		tracks, err := download.PlaylistInfo(spotifyURL)
		if err != nil {
			s.reportInfoError(sock, err, "error getting playlist info")
			return
		}
		sock.emit("downloadStatus", downloadStatus("info", fmt.Sprintf("%d songs found in playlist.", len(tracks))))

		total, err := s.dl.DownloadPlaylist(ctx, spotifyURL, s.cfg.SongsDir)
		if err != nil {
			sock.emit("downloadStatus", downloadStatus("error", "Couldn't download playlist."))
			s.log.Error("failed to download playlist", "error", err)
			return
		}
		sock.emit("downloadStatus", downloadStatus("success", fmt.Sprintf("%d songs downloaded from playlist.", total)))
	}

	if strings.Contains(spotifyURL, "track") {
		track, err := download.TrackInfo(spotifyURL)
		if err != nil {
			s.reportInfoError(sock, err, "error getting track info")
			return
		}

		song, exists, err := s.db.GetSongByKey(ctx, store.SongKey(track.Title, track.Artist))
		if err != nil {
			s.log.Error("failed to get song by key", "error", err)
		} else if exists {
			sock.emit("downloadStatus", downloadStatus("error", fmt.Sprintf(
				"'%s' by '%s' already exists in the database (https://www.youtube.com/watch?v=%s)",
				song.Title, song.Artist, song.YouTubeID)))
			return
		}

		total, err := s.dl.DownloadTrack(ctx, spotifyURL, s.cfg.SongsDir)
		if err != nil {
			s.reportInfoError(sock, err, "error downloading track")
			return
		}
		if total != 1 {
			sock.emit("downloadStatus", downloadStatus("error", fmt.Sprintf("'%s' by '%s' failed to download", track.Title, track.Artist)))
			return
		}
		sock.emit("downloadStatus", downloadStatus("success", fmt.Sprintf("'%s' by '%s' was downloaded", track.Title, track.Artist)))
	}
}

// reportInfoError forwards short, user-presentable errors to the client and
// keeps verbose ones in the log only.
func (s *Server) reportInfoError(sock *wsConn, err error, logMsg string) {
	if len(err.Error()) <= 25 {
		sock.emit("downloadStatus", downloadStatus("error", err.Error()))
		s.log.Info(err.Error())
		return
	}
	s.log.Error(logMsg, "error", err)
}

func (s *Server) wsNewRecording(ctx context.Context, sock *wsConn, data string) {
	var rec library.RecordData
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		s.log.Error("failed to unmarshal record data", "error", err)
		return
	}

	samples, err := library.ProcessRecording(&rec, s.cfg.TmpDir, s.cfg.RecordingsDir, true)
	if err != nil {
		s.log.Error("failed to process recording", "error", err)
		return
	}

	matches, _, err := match.FindMatches(ctx, s.db, samples, rec.Duration, 44100)
	if err != nil {
		s.log.Error("failed to get matches", "error", err)
		return
	}
	if len(matches) > maxSocketMatches {
		matches = matches[:maxSocketMatches]
	}

	payload, err := json.Marshal(matches)
	if err != nil {
		s.log.Error("failed to marshal matches", "error", err)
		return
	}
	sock.emit("matches", string(payload))
}
