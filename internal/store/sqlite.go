package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/songscout/songscout/internal/fingerprint"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLiteStore persists the catalog in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and
// ensures the schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	const songs = `
		CREATE TABLE IF NOT EXISTS songs (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			ytID TEXT UNIQUE,
			key TEXT NOT NULL UNIQUE
		);`
	const fingerprints = `
		CREATE TABLE IF NOT EXISTS fingerprints (
			address INTEGER NOT NULL,
			anchorTimeMs INTEGER NOT NULL,
			songID INTEGER NOT NULL,
			PRIMARY KEY (address, anchorTimeMs, songID)
		);`

	if _, err := db.Exec(songs); err != nil {
		return fmt.Errorf("error creating songs table: %w", err)
	}
	if _, err := db.Exec(fingerprints); err != nil {
		return fmt.Errorf("error creating fingerprints table: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StoreFingerprints writes all fingerprints in one transaction. A row is
// replaced only when the full (address, anchorTimeMs, songID) key collides;
// different couples under the same address coexist.
func (s *SQLiteStore) StoreFingerprints(ctx context.Context, fingerprints map[uint32]fingerprint.Couple) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO fingerprints (address, anchorTimeMs, songID) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for address, couple := range fingerprints {
		if _, err := stmt.ExecContext(ctx, int64(address), int64(couple.AnchorTimeMs), int64(couple.SongID)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCouples retrieves all stored couples for each of the given addresses.
func (s *SQLiteStore) GetCouples(ctx context.Context, addresses []uint32) (map[uint32][]fingerprint.Couple, error) {
	couplesMap := make(map[uint32][]fingerprint.Couple, len(addresses))

	stmt, err := s.db.PrepareContext(ctx,
		"SELECT anchorTimeMs, songID FROM fingerprints WHERE address = ?")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, address := range addresses {
		rows, err := stmt.QueryContext(ctx, int64(address))
		if err != nil {
			return nil, err
		}
		var couples []fingerprint.Couple
		for rows.Next() {
			var anchorTimeMs, songID int64
			if err := rows.Scan(&anchorTimeMs, &songID); err != nil {
				rows.Close()
				return nil, err
			}
			couples = append(couples, fingerprint.Couple{
				AnchorTimeMs: uint32(anchorTimeMs),
				SongID:       uint32(songID),
			})
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		couplesMap[address] = couples
	}
	return couplesMap, nil
}

// TotalSongs returns the number of songs in the catalog.
func (s *SQLiteStore) TotalSongs(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM songs").Scan(&count)
	return count, err
}

// RegisterSong inserts a new song with a freshly generated random ID and
// returns that ID. Fails if a song with the same YouTube ID or title/artist
// key already exists.
func (s *SQLiteStore) RegisterSong(ctx context.Context, title, artist, ytID string) (uint32, error) {
	songID := generateSongID()
	key := SongKey(title, artist)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO songs (id, title, artist, ytID, key) VALUES (?, ?, ?, ?, ?)",
		int64(songID), title, artist, ytID, key)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("song with ytID or key already exists: %w", err)
		}
		return 0, fmt.Errorf("failed to register song: %w", err)
	}
	return songID, nil
}

func (s *SQLiteStore) getSong(ctx context.Context, filterKey string, value any) (Song, bool, error) {
	switch filterKey {
	case "id", "ytID", "key":
	default:
		return Song{}, false, fmt.Errorf("invalid filter key")
	}

	query := fmt.Sprintf("SELECT id, title, artist, ytID FROM songs WHERE %s = ?", filterKey)
	var song Song
	err := s.db.QueryRowContext(ctx, query, value).Scan(&song.ID, &song.Title, &song.Artist, &song.YouTubeID)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, false, nil
	}
	if err != nil {
		return Song{}, false, err
	}
	return song, true, nil
}

func (s *SQLiteStore) GetSongByID(ctx context.Context, songID uint32) (Song, bool, error) {
	return s.getSong(ctx, "id", int64(songID))
}

func (s *SQLiteStore) GetSongByYTID(ctx context.Context, ytID string) (Song, bool, error) {
	return s.getSong(ctx, "ytID", ytID)
}

func (s *SQLiteStore) GetSongByKey(ctx context.Context, key string) (Song, bool, error) {
	return s.getSong(ctx, "key", key)
}

// ListSongs returns all songs ordered by title.
func (s *SQLiteStore) ListSongs(ctx context.Context) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, title, artist, ytID FROM songs ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		var song Song
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.YouTubeID); err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// DeleteSongByID removes a song and its fingerprints.
func (s *SQLiteStore) DeleteSongByID(ctx context.Context, songID uint32) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM songs WHERE id = ?", int64(songID)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM fingerprints WHERE songID = ?", int64(songID))
	return err
}

// DeleteAll drops both tables and recreates the schema empty.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"songs", "fingerprints"} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return err
		}
	}
	return createTables(s.db)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// generateSongID returns a random 32-bit song ID.
func generateSongID() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}
