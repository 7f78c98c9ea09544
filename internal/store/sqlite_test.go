package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/songscout/songscout/internal/fingerprint"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.sqlite3"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestOpenDriverDispatch(t *testing.T) {
	if _, err := Open("mongo", "foo"); err == nil {
		t.Error("mongo should be unsupported")
	}
	if _, err := Open("postgres", "foo"); err == nil {
		t.Error("unknown driver should fail")
	}
	s, err := Open("sqlite", filepath.Join(t.TempDir(), "d.sqlite3"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	s.Close()
}

func TestRegisterAndGetSong(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RegisterSong(ctx, "Bohemian Rhapsody", "Queen", "fJ9rUzIMcZQ")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}

	song, found, err := s.GetSongByID(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetSongByID: found=%v err=%v", found, err)
	}
	if song.Title != "Bohemian Rhapsody" || song.Artist != "Queen" || song.YouTubeID != "fJ9rUzIMcZQ" {
		t.Errorf("unexpected song: %+v", song)
	}

	if _, found, _ := s.GetSongByYTID(ctx, "fJ9rUzIMcZQ"); !found {
		t.Error("GetSongByYTID: not found")
	}
	if _, found, _ := s.GetSongByKey(ctx, SongKey("Bohemian Rhapsody", "Queen")); !found {
		t.Error("GetSongByKey: not found")
	}

	n, err := s.TotalSongs(ctx)
	if err != nil || n != 1 {
		t.Errorf("TotalSongs = %d err=%v, want 1", n, err)
	}
}

func TestRegisterSongDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterSong(ctx, "Song", "Artist", "yt1"); err != nil {
		t.Fatal(err)
	}
	// Same title/artist key.
	if _, err := s.RegisterSong(ctx, "Song", "Artist", "yt2"); err == nil {
		t.Error("expected unique violation for duplicate key")
	}
	// Same YouTube ID.
	if _, err := s.RegisterSong(ctx, "Other", "Artist", "yt1"); err == nil {
		t.Error("expected unique violation for duplicate ytID")
	}
}

func TestGetSongMissing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.GetSongByID(context.Background(), 12345)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("found nonexistent song")
	}
}

func TestFingerprintsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	fps := map[uint32]fingerprint.Couple{
		100: {AnchorTimeMs: 10, SongID: 1},
		200: {AnchorTimeMs: 20, SongID: 1},
		300: {AnchorTimeMs: 30, SongID: 2},
	}
	if err := s.StoreFingerprints(ctx, fps); err != nil {
		t.Fatalf("StoreFingerprints: %v", err)
	}

	couples, err := s.GetCouples(ctx, []uint32{100, 300, 999})
	if err != nil {
		t.Fatalf("GetCouples: %v", err)
	}
	if len(couples[100]) != 1 || couples[100][0].SongID != 1 {
		t.Errorf("address 100: %+v", couples[100])
	}
	if len(couples[300]) != 1 || couples[300][0].AnchorTimeMs != 30 {
		t.Errorf("address 300: %+v", couples[300])
	}
	if len(couples[999]) != 0 {
		t.Errorf("address 999 should be empty, got %+v", couples[999])
	}
}

func TestDeleteSongRemovesFingerprints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RegisterSong(ctx, "Song", "Artist", "yt1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.StoreFingerprints(ctx, map[uint32]fingerprint.Couple{
		42: {AnchorTimeMs: 5, SongID: id},
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteSongByID(ctx, id); err != nil {
		t.Fatalf("DeleteSongByID: %v", err)
	}

	if _, found, _ := s.GetSongByID(ctx, id); found {
		t.Error("song still present after delete")
	}
	couples, err := s.GetCouples(ctx, []uint32{42})
	if err != nil {
		t.Fatal(err)
	}
	if len(couples[42]) != 0 {
		t.Errorf("fingerprints still present: %+v", couples[42])
	}
}

func TestListSongsOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"Zebra", "A"}, {"Alpha", "B"}, {"Mango", "C"}} {
		if _, err := s.RegisterSong(ctx, pair[0], pair[1], pair[0]+pair[1]); err != nil {
			t.Fatal(err)
		}
	}
	songs, err := s.ListSongs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != 3 {
		t.Fatalf("got %d songs, want 3", len(songs))
	}
	if songs[0].Title != "Alpha" || songs[2].Title != "Zebra" {
		t.Errorf("songs not ordered by title: %+v", songs)
	}
}

func TestDeleteAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterSong(ctx, "Song", "Artist", "yt1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	n, err := s.TotalSongs(ctx)
	if err != nil {
		t.Fatalf("schema should be recreated after DeleteAll: %v", err)
	}
	if n != 0 {
		t.Errorf("TotalSongs = %d after DeleteAll", n)
	}
}

func TestSongKey(t *testing.T) {
	if got := SongKey("Title", "Artist"); got != "Title---Artist" {
		t.Errorf("SongKey = %q", got)
	}
}
