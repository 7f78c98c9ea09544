// Package admin implements operator maintenance tasks: archiving the song
// database and audio library into a portable tar.lz4 backup and restoring
// from one.
package admin

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
)

// manifestName is the archive entry describing the backup itself.
// Restore skips it like any other entry outside db/ and songs/.
const manifestName = "manifest.json"

// Manifest records what went into an archive: when it was taken, the
// source paths, and how many files were stored.
type Manifest struct {
	CreatedAt time.Time `json:"created_at"`
	Database  string    `json:"database"`
	SongsDir  string    `json:"songs_dir"`
	Entries   int64     `json:"entries"`
}

// ProgressFunc reports archive progress. total is -1 when unknown.
type ProgressFunc func(current, total int64, name string)

// BackupName returns the default archive filename for the current time.
func BackupName(now time.Time) string {
	return fmt.Sprintf("songscout-backup-%s.tar.lz4", now.Format("20060102-150405"))
}

// Backup writes dbPath and the songs directory into a tar.lz4 archive at
// destPath. Entries are stored under db/ and songs/ so Restore can place
// them regardless of the original layout; a trailing manifest.json entry
// records the source paths and entry count.
func Backup(dbPath, songsDir, destPath string, progress ProgressFunc) (err error) {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(destPath)
		}
	}()

	lz4Writer := lz4.NewWriter(out)
	tw := tar.NewWriter(lz4Writer)

	var count int64
	if dbPath != "" {
		if _, statErr := os.Stat(dbPath); statErr == nil {
			count++
			if progress != nil {
				progress(count, -1, filepath.Base(dbPath))
			}
			if err := addFile(tw, dbPath, "db/"+filepath.Base(dbPath)); err != nil {
				return err
			}
		}
	}

	if songsDir != "" {
		walkErr := filepath.WalkDir(songsDir, func(path string, d fs.DirEntry, werr error) error {
			if werr != nil {
				return werr
			}
			if d.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(songsDir, path)
			if rerr != nil {
				return rerr
			}
			count++
			if progress != nil {
				progress(count, -1, rel)
			}
			return addFile(tw, path, "songs/"+filepath.ToSlash(rel))
		})
		if walkErr != nil && !os.IsNotExist(walkErr) {
			return fmt.Errorf("archive songs: %w", walkErr)
		}
	}

	manifest, err := json.MarshalIndent(Manifest{
		CreatedAt: time.Now().UTC(),
		Database:  dbPath,
		SongsDir:  songsDir,
		Entries:   count,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:     manifestName,
		Mode:     0o644,
		Size:     int64(len(manifest)),
		ModTime:  time.Now(),
		Typeflag: tar.TypeReg,
	}); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalize tar: %w", err)
	}
	if err := lz4Writer.Close(); err != nil {
		return fmt.Errorf("finalize lz4: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Restore extracts an archive produced by Backup: db/* lands in the
// directory holding dbPath (renamed to dbPath's basename when the archive
// holds a single db file), songs/* lands under songsDir.
func Restore(archivePath, dbPath, songsDir string, progress ProgressFunc) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	lz4Reader := lz4.NewReader(f)
	tr := tar.NewReader(lz4Reader)

	var count int64
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		cleanName := filepath.Clean(filepath.FromSlash(header.Name))
		if strings.HasPrefix(cleanName, "..") || filepath.IsAbs(cleanName) {
			return fmt.Errorf("invalid path in archive: %s", header.Name)
		}

		var targetPath string
		switch {
		case strings.HasPrefix(header.Name, "db/"):
			targetPath = dbPath
		case strings.HasPrefix(header.Name, "songs/"):
			targetPath = filepath.Join(songsDir, strings.TrimPrefix(cleanName, "songs"+string(os.PathSeparator)))
			if !strings.HasPrefix(targetPath, filepath.Clean(songsDir)+string(os.PathSeparator)) {
				return fmt.Errorf("path traversal detected: %s", header.Name)
			}
		default:
			continue
		}

		count++
		if progress != nil {
			progress(count, -1, cleanName)
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return fmt.Errorf("create parent dir for %s: %w", cleanName, err)
		}
		outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
		if err != nil {
			return fmt.Errorf("create file %s: %w", cleanName, err)
		}
		written, copyErr := io.Copy(outFile, tr)
		if copyErr != nil {
			outFile.Close()
			return fmt.Errorf("write file %s: %w", cleanName, copyErr)
		}
		if header.Size > 0 && written != header.Size {
			outFile.Close()
			return fmt.Errorf("incomplete extraction of %s: wrote %d of %d bytes", cleanName, written, header.Size)
		}
		if err := outFile.Close(); err != nil {
			return fmt.Errorf("close file %s: %w", cleanName, err)
		}
	}
	return nil
}
