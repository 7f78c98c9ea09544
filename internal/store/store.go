// Package store persists the song catalog and fingerprint index.
package store

import (
	"context"
	"fmt"

	"github.com/songscout/songscout/internal/fingerprint"
)

// Song is one entry in the catalog.
type Song struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	YouTubeID string `json:"ytID"`
}

// Store is the persistence interface for songs and fingerprints.
type Store interface {
	Close() error

	StoreFingerprints(ctx context.Context, fingerprints map[uint32]fingerprint.Couple) error
	GetCouples(ctx context.Context, addresses []uint32) (map[uint32][]fingerprint.Couple, error)

	TotalSongs(ctx context.Context) (int, error)
	RegisterSong(ctx context.Context, title, artist, ytID string) (uint32, error)
	GetSongByID(ctx context.Context, songID uint32) (Song, bool, error)
	GetSongByYTID(ctx context.Context, ytID string) (Song, bool, error)
	GetSongByKey(ctx context.Context, key string) (Song, bool, error)
	ListSongs(ctx context.Context) ([]Song, error)
	DeleteSongByID(ctx context.Context, songID uint32) error
	DeleteAll(ctx context.Context) error
}

// Open creates a store for the given driver. Only "sqlite" is currently
// backed by an implementation; "mongo" is recognized but unsupported.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(path)
	case "mongo":
		return nil, fmt.Errorf("mongo store not supported in this build (db: %s)", path)
	}
	return nil, fmt.Errorf("unsupported database type: %s", driver)
}

// SongKey builds the catalog's unique key for a title/artist pair.
func SongKey(title, artist string) string {
	return title + "---" + artist
}
