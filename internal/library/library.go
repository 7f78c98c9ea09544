// Package library manages the song catalog: registering audio files,
// fingerprinting them into the index, and erasing everything.
package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/songscout/songscout/internal/fingerprint"
	"github.com/songscout/songscout/internal/store"
	"github.com/songscout/songscout/internal/wav"
)

// YouTubeIDResolver finds the YouTube video ID for a track. Wired to the
// download package's search by the CLI; injectable so tests don't hit the
// network.
type YouTubeIDResolver func(title, artist string, durationSec float64) (string, error)

// Service ties the catalog operations to their storage and directories.
type Service struct {
	DB        store.Store
	SongsDir  string
	TmpDir    string
	Log       *slog.Logger
	ResolveYT YouTubeIDResolver

	// convert normalizes an audio file to mono WAV. Defaults to
	// wav.ConvertToWAV; injectable so tests don't need ffmpeg.
	convert func(path string, channels int) (string, error)
}

func New(db store.Store, songsDir, tmpDir string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{DB: db, SongsDir: songsDir, TmpDir: tmpDir, Log: log, convert: wav.ConvertToWAV}
}

// ProcessAndSaveSong converts the audio file to mono WAV, fingerprints it,
// and registers the song plus its fingerprints. If storing fingerprints
// fails the song row is rolled back.
func (s *Service) ProcessAndSaveSong(ctx context.Context, songFilePath, title, artist, ytID string) error {
	if s.convert == nil {
		s.convert = wav.ConvertToWAV
	}
	wavFilePath, err := s.convert(songFilePath, 1)
	if err != nil {
		return err
	}
	info, err := wav.ReadInfo(wavFilePath)
	if err != nil {
		return err
	}
	samples, err := wav.BytesToSamples(info.Data)
	if err != nil {
		return err
	}
	spectro, err := fingerprint.Spectrogram(samples, info.SampleRate)
	if err != nil {
		return err
	}

	songID, err := s.DB.RegisterSong(ctx, title, artist, ytID)
	if err != nil {
		return err
	}

	peaks := fingerprint.ExtractPeaks(spectro, info.Duration)
	fingerprints := fingerprint.Fingerprint(peaks, songID)

	if err := s.DB.StoreFingerprints(ctx, fingerprints); err != nil {
		_ = s.DB.DeleteSongByID(ctx, songID)
		return fmt.Errorf("error storing fingerprint: %w", err)
	}

	s.Log.Info("fingerprint saved", "title", title, "artist", artist, "songID", songID)
	return nil
}

// SavePath registers a single file or every file under a directory.
// Per-file failures are logged and skipped; the first error is returned so
// the CLI can report partial failure.
func (s *Service) SavePath(ctx context.Context, path string, force bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !fi.IsDir() {
		return s.SaveSong(ctx, path, force)
	}

	var firstErr error
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.Log.Error("walking path", "path", p, "err", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if err := s.SaveSong(ctx, p, force); err != nil {
			s.Log.Error("saving song", "path", p, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return firstErr
}

// SaveSong registers one audio file. MP3 inputs are converted to WAV first.
// Title and artist come from the file's metadata tags; a YouTube ID is
// resolved by search unless force is set, in which case resolution failures
// leave the ID empty.
func (s *Service) SaveSong(ctx context.Context, filePath string, force bool) error {
	if strings.EqualFold(filepath.Ext(filePath), ".mp3") {
		wavPath, err := wav.ConvertToWAV(filePath, 1)
		if err != nil {
			return fmt.Errorf("failed to convert MP3 to WAV: %w", err)
		}
		return s.SaveSong(ctx, wavPath, force)
	}

	md, err := wav.GetMetadata(filePath)
	if err != nil {
		return err
	}
	duration, err := strconv.ParseFloat(md.Format.Duration, 64)
	if err != nil {
		return fmt.Errorf("failed to parse duration to float: %w", err)
	}

	title := md.Format.Tags["title"]
	artist := md.Format.Tags["artist"]
	if title == "" {
		return fmt.Errorf("no title found in metadata")
	}
	if artist == "" {
		return fmt.Errorf("no artist found in metadata")
	}

	var ytID string
	if s.ResolveYT != nil {
		ytID, err = s.ResolveYT(title, artist, duration)
		if err != nil {
			if !force {
				return fmt.Errorf("failed to get YouTube ID for song: %w", err)
			}
			ytID = ""
		}
	}

	if err := s.ProcessAndSaveSong(ctx, filePath, title, artist, ytID); err != nil {
		return fmt.Errorf("failed to process or save song: %w", err)
	}

	// Move the converted WAV into the songs directory.
	wavFile := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath)) + ".wav"
	sourcePath := filepath.Join(filepath.Dir(filePath), wavFile)
	if err := os.MkdirAll(s.SongsDir, 0o755); err != nil {
		return err
	}
	if err := os.Rename(sourcePath, filepath.Join(s.SongsDir, wavFile)); err != nil {
		return fmt.Errorf("failed to move song file to songs directory: %w", err)
	}
	return nil
}

// Erase wipes the whole catalog: both database tables and the audio files
// in the songs directory.
func (s *Service) Erase(ctx context.Context) error {
	if err := s.DB.DeleteAll(ctx); err != nil {
		return fmt.Errorf("error wiping database: %w", err)
	}

	err := filepath.WalkDir(s.SongsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".wav", ".m4a":
			return os.Remove(p)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error deleting song files: %w", err)
	}
	return nil
}
