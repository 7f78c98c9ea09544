package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/songscout/songscout/internal/match"
	"github.com/songscout/songscout/internal/wav"
)

const maxUploadBytes = 64 << 20

type songsResponse struct {
	Total int         `json:"total"`
	Songs interface{} `json:"songs"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}

func (s *Server) httpError(w http.ResponseWriter, status int, err error) {
	s.log.Error("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// saveUpload stores the multipart "file" field in the tmp dir, preserving the
// original extension so conversion can detect the format.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", fmt.Errorf("failed to parse upload: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(s.cfg.TmpDir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = ".wav"
	}
	tmp, err := os.CreateTemp(s.cfg.TmpDir, "upload_*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return tmp.Name(), nil
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	path, err := s.saveUpload(r)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(path)

	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		converted, err := wav.ConvertToWAV(path, 1)
		if err != nil {
			s.httpError(w, http.StatusInternalServerError, err)
			return
		}
		defer os.Remove(converted)
		path = converted
	}

	matches, took, err := match.FindMatchesForFile(r.Context(), s.db, path)
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("find request served", "matches", len(matches), "took", took)
	if matches == nil {
		matches = []match.Match{}
	}
	s.writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.httpError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.URL == "" {
		s.httpError(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}

	var (
		total int
		err   error
	)
	switch {
	case strings.Contains(req.URL, "album"):
		total, err = s.dl.DownloadAlbum(r.Context(), req.URL, s.cfg.SongsDir)
	case strings.Contains(req.URL, "playlist"):
		total, err = s.dl.DownloadPlaylist(r.Context(), req.URL, s.cfg.SongsDir)
	case strings.Contains(req.URL, "track"):
		total, err = s.dl.DownloadTrack(r.Context(), req.URL, s.cfg.SongsDir)
	default:
		s.httpError(w, http.StatusBadRequest, fmt.Errorf("unrecognized spotify url"))
		return
	}
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"downloaded": total})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	path, err := s.saveUpload(r)
	if err != nil {
		s.httpError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(path)

	if err := s.lib.SavePath(r.Context(), path, force); err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.Erase(r.Context()); err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("library erased")
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "erased"})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	total, err := s.db.TotalSongs(r.Context())
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	songs, err := s.db.ListSongs(r.Context())
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, songsResponse{Total: total, Songs: songs})
}
