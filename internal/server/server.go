// Package server exposes the recognition engine over HTTP(S): a small REST
// API for uploads and library management, plus a WebSocket endpoint for
// clients that stream recordings and watch download progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/songscout/songscout/internal/config"
	"github.com/songscout/songscout/internal/download"
	"github.com/songscout/songscout/internal/library"
	"github.com/songscout/songscout/internal/store"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg config.Config
	db  store.Store
	lib *library.Service
	dl  *download.Downloader
	log *slog.Logger
}

func New(cfg config.Config, db store.Store, lib *library.Service, dl *download.Downloader, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{cfg: cfg, db: db, lib: lib, dl: dl, log: log}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/find", s.handleFind)
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/erase", s.handleErase)
	mux.HandleFunc("GET /api/songs", s.handleSongs)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully. With TLS
// enabled it listens on the TLS port using the configured cert pair;
// otherwise it serves plaintext on the HTTP port.
func (s *Server) Run(ctx context.Context, useTLS bool) error {
	port := s.cfg.HTTPPort
	if useTLS {
		port = s.cfg.TLSPort
	}
	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			s.log.Info("listening", "proto", "https", "port", port)
			err = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.CertKey)
		} else {
			s.log.Info("listening", "proto", "http", "port", port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
