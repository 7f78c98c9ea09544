package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/songscout/songscout/internal/library"
	"github.com/songscout/songscout/internal/store"
)

// Downloader fetches tracks from YouTube and registers them in the library.
type Downloader struct {
	DB      store.Store
	Library *library.Service
	Log     *slog.Logger

	// KeepAudio controls whether the downloaded WAV stays in the songs
	// directory after fingerprinting.
	KeepAudio bool

	// OnTrack, when set, is called after each successfully registered
	// track with the running count and the batch size. Called from
	// worker goroutines; the callback must be safe for concurrent use.
	OnTrack func(done, total int)
}

func New(db store.Store, lib *library.Service, log *slog.Logger) *Downloader {
	if log == nil {
		log = slog.Default()
	}
	return &Downloader{DB: db, Library: lib, Log: log, KeepAudio: true}
}

// DownloadTrack downloads a single Spotify track URL into savePath and
// returns the number of tracks registered.
func (d *Downloader) DownloadTrack(ctx context.Context, url, savePath string) (int, error) {
	track, err := TrackInfo(url)
	if err != nil {
		return 0, err
	}
	return d.downloadAll(ctx, []Track{*track}, savePath)
}

// DownloadPlaylist downloads every track of a Spotify playlist URL.
func (d *Downloader) DownloadPlaylist(ctx context.Context, url, savePath string) (int, error) {
	tracks, err := PlaylistInfo(url)
	if err != nil {
		return 0, err
	}
	return d.downloadAll(ctx, tracks, savePath)
}

// DownloadAlbum downloads every track of a Spotify album URL.
func (d *Downloader) DownloadAlbum(ctx context.Context, url, savePath string) (int, error) {
	tracks, err := AlbumInfo(url)
	if err != nil {
		return 0, err
	}
	return d.downloadAll(ctx, tracks, savePath)
}

// downloadAll fans tracks out to a worker pool bounded by the CPU count.
// Individual failures are logged, not fatal.
func (d *Downloader) downloadAll(ctx context.Context, tracks []Track, savePath string) (int, error) {
	if err := os.MkdirAll(savePath, 0o755); err != nil {
		return 0, err
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, track := range tracks {
		track := track
		g.Go(func() error {
			if err := d.downloadOne(ctx, track, savePath); err != nil {
				d.Log.Error("track download failed",
					"title", track.Title, "artist", track.Artist, "err", err)
				return nil
			}
			n := total.Add(1)
			if d.OnTrack != nil {
				d.OnTrack(int(n), len(tracks))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(total.Load()), err
	}

	d.Log.Info("batch complete", "downloaded", total.Load(), "requested", len(tracks))
	return int(total.Load()), nil
}

func (d *Downloader) downloadOne(ctx context.Context, track Track, savePath string) error {
	key := store.SongKey(track.Title, track.Artist)
	if _, exists, err := d.DB.GetSongByKey(ctx, key); err != nil {
		return fmt.Errorf("error checking song existence: %w", err)
	} else if exists {
		d.Log.Info("song already exists", "title", track.Title, "artist", track.Artist)
		return nil
	}

	ytID, err := d.resolveNewYTID(ctx, &track)
	if err != nil {
		return err
	}

	title, artist := correctFilename(track.Title, track.Artist)
	track.Title, track.Artist = title, artist
	fileName := fmt.Sprintf("%s - %s", title, artist)
	filePath := filepath.Join(savePath, fileName+".m4a")

	if err := downloadYTAudio(ctx, ytID, filePath); err != nil {
		return fmt.Errorf("could not download audio: %w", err)
	}

	if err := d.Library.ProcessAndSaveSong(ctx, filePath, track.Title, track.Artist, ytID); err != nil {
		return fmt.Errorf("failed to process song: %w", err)
	}
	_ = os.Remove(filePath)

	wavPath := filepath.Join(savePath, fileName+".wav")
	if err := addTags(wavPath, &track); err != nil {
		return fmt.Errorf("error adding tags: %w", err)
	}
	if !d.KeepAudio {
		_ = os.Remove(wavPath)
	}

	d.Log.Info("track downloaded", "title", track.Title, "artist", track.Artist)
	return nil
}

// resolveNewYTID finds a YouTube ID for the track, retrying once if the
// first candidate is already registered.
func (d *Downloader) resolveNewYTID(ctx context.Context, track *Track) (string, error) {
	ytID, err := GetYouTubeID(track)
	if err != nil {
		return "", err
	}
	if ytID == "" {
		return "", fmt.Errorf("YouTube ID is empty")
	}
	if _, exists, err := d.DB.GetSongByYTID(ctx, ytID); err != nil {
		return "", err
	} else if !exists {
		return ytID, nil
	}

	d.Log.Warn("YouTube ID exists, trying again", "ytID", ytID)
	ytID, err = GetYouTubeID(track)
	if err != nil {
		return "", err
	}
	if _, exists, err := d.DB.GetSongByYTID(ctx, ytID); err != nil {
		return "", err
	} else if ytID == "" || exists {
		return "", fmt.Errorf("youTube ID (%s) exists", ytID)
	}
	return ytID, nil
}

// downloadYTAudio fetches the audio stream of a YouTube video via yt-dlp.
func downloadYTAudio(ctx context.Context, id, filePath string) error {
	dir := filepath.Dir(filePath)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return fmt.Errorf("the path is not valid (not a dir)")
	}

	out, err := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestaudio[ext=m4a]",
		"-o", filePath,
		"https://www.youtube.com/watch?v="+id,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp: %w: %s", err, out)
	}

	fi, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return fmt.Errorf("downloaded file is empty")
	}
	return nil
}

// addTags writes title/artist/album metadata into the WAV via ffmpeg, going
// through a temporary file.
func addTags(file string, track *Track) error {
	idx := strings.LastIndex(file, ".wav")
	if idx < 0 {
		return fmt.Errorf("invalid file name")
	}
	tempFile := file[:idx] + "2.wav"

	out, err := exec.Command("ffmpeg",
		"-i", file,
		"-c", "copy",
		"-metadata", "album_artist="+track.Artist,
		"-metadata", "title="+track.Title,
		"-metadata", "artist="+track.Artist,
		"-metadata", "album="+track.Album,
		tempFile,
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to add tags: %w: %s", err, out)
	}
	return os.Rename(tempFile, file)
}

// correctFilename strips path-hostile characters from title and artist.
func correctFilename(title, artist string) (string, string) {
	return strings.ReplaceAll(title, "/", "\\"), strings.ReplaceAll(artist, "/", "\\")
}
