// Package download fetches track metadata from Spotify, resolves tracks to
// YouTube videos, and downloads audio into the library.
package download

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Spotify web-player endpoints. The persisted-query hashes identify the
// GraphQL operations the web player itself issues.
const (
	tokenEndpoint       = "https://open.spotify.com/get_access_token?reason=transport&productType=web-player"
	trackInitialPath    = "https://api-partner.spotify.com/pathfinder/v1/query?operationName=getTrack&variables="
	playlistInitialPath = "https://api-partner.spotify.com/pathfinder/v1/query?operationName=fetchPlaylist&variables="
	albumInitialPath    = "https://api-partner.spotify.com/pathfinder/v1/query?operationName=getAlbum&variables="
	trackEndPath        = `{"persistedQuery":{"version":1,"sha256Hash":"e101aead6d78faa11d75bec5e36385a07b2f1c4a0420932d374d89ee17c70dd6"}}`
	playlistEndPath     = `{"persistedQuery":{"version":1,"sha256Hash":"b39f62e9b566aa849b1780927de1450f47e02c54abf1e66e513f96e849591e41"}}`
	albumEndPath        = `{"persistedQuery":{"version":1,"sha256Hash":"46ae954ef2d2fe7732b4b2b4022157b2e18b7ea84f70591ceb164e4de1b5d5d3"}}`
)

var (
	trackPattern    = regexp.MustCompile(`^https://open\.spotify\.com/track/[a-zA-Z0-9]{22}(\?si=[a-zA-Z0-9]{16})?$`)
	playlistPattern = regexp.MustCompile(`^https://open\.spotify\.com/playlist/[a-zA-Z0-9]{22}(\?si=[a-zA-Z0-9]{16})?$`)
	albumPattern    = regexp.MustCompile(`^https://open\.spotify\.com/album/[a-zA-Z0-9-]{22}(\?si=[a-zA-Z0-9_-]{16,22})?$`)
)

// Track is the metadata needed to locate and register one song.
type Track struct {
	Title    string
	Artist   string
	Album    string
	Artists  []string
	Duration float64 // seconds
}

var httpClient = &http.Client{Timeout: 15 * time.Second}

func accessToken() (string, error) {
	resp, err := httpClient.Get(tokenEndpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	token := gjson.GetBytes(body, "accessToken")
	if !token.Exists() {
		return "", fmt.Errorf("accessToken not found")
	}
	return token.String(), nil
}

func request(endpoint string) (int, []byte, error) {
	bearer, err := accessToken()
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// spotifyID extracts the resource ID from a Spotify URL.
func spotifyID(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	if len(parts) <= 4 {
		return ""
	}
	return strings.SplitN(parts[4], "?", 2)[0]
}

// TrackInfo retrieves metadata for a single Spotify track URL.
func TrackInfo(trackURL string) (*Track, error) {
	if !trackPattern.MatchString(trackURL) {
		return nil, fmt.Errorf("invalid track url")
	}
	id := spotifyID(trackURL)
	query := fmt.Sprintf(`{"uri":"spotify:track:%s"}`, id)
	endpoint := trackInitialPath + url.QueryEscape(query) + "&extensions=" + url.QueryEscape(trackEndPath)

	status, body, err := request(endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", status)
	}

	root := gjson.ParseBytes(body)
	firstArtist := root.Get("data.trackUnion.firstArtist.items.0.profile.name").String()

	artists := []string{}
	if firstArtist != "" {
		artists = append(artists, firstArtist)
	}
	root.Get("data.trackUnion.otherArtists.items").ForEach(func(_, item gjson.Result) bool {
		if name := item.Get("profile.name").String(); name != "" {
			artists = append(artists, name)
		}
		return true
	})

	return &Track{
		Title:    root.Get("data.trackUnion.name").String(),
		Artist:   firstArtist,
		Album:    root.Get("data.trackUnion.albumOfTrack.name").String(),
		Artists:  artists,
		Duration: float64(root.Get("data.trackUnion.duration.totalMilliseconds").Int()) / 1000,
	}, nil
}

// PlaylistInfo retrieves all tracks of a Spotify playlist URL.
func PlaylistInfo(playlistURL string) ([]Track, error) {
	if !playlistPattern.MatchString(playlistURL) {
		return nil, fmt.Errorf("invalid playlist url")
	}
	return resourceInfo(playlistURL, "playlist", "data.playlistV2.content.totalCount")
}

// AlbumInfo retrieves all tracks of a Spotify album URL.
func AlbumInfo(albumURL string) ([]Track, error) {
	if !albumPattern.MatchString(albumURL) {
		return nil, fmt.Errorf("invalid album url")
	}
	return resourceInfo(albumURL, "album", "data.albumUnion.discs.items.0.tracks.totalCount")
}

func resourceInfo(rawURL, resourceType, totalCountPath string) ([]Track, error) {
	id := spotifyID(rawURL)
	const limit = 400
	offset := int64(0)

	body, err := jsonList(resourceType, id, offset, limit)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	total := root.Get(totalCountPath).Int()
	if total < 1 {
		return nil, fmt.Errorf("hum, there are no tracks")
	}

	name := root.Get("data.playlistV2.name").String()
	if resourceType == "album" {
		name = root.Get("data.albumUnion.name").String()
	}
	fmt.Printf("Collecting tracks from '%s'...\n", name)

	requests := (total + limit - 1) / limit
	tracks := processItems(body, resourceType)
	for i := int64(1); i < requests; i++ {
		offset += limit
		body, err := jsonList(resourceType, id, offset, limit)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, processItems(body, resourceType)...)
	}
	fmt.Printf("Tracks collected: %d\n", len(tracks))
	return tracks, nil
}

func jsonList(resourceType, id string, offset, limit int64) ([]byte, error) {
	var endpoint string
	if resourceType == "playlist" {
		query := fmt.Sprintf(`{"uri":"spotify:playlist:%s","offset":%d,"limit":%d}`, id, offset, limit)
		endpoint = playlistInitialPath + url.QueryEscape(query) + "&extensions=" + url.QueryEscape(playlistEndPath)
	} else {
		query := fmt.Sprintf(`{"uri":"spotify:album:%s","locale":"","offset":%d,"limit":%d}`, id, offset, limit)
		endpoint = albumInitialPath + url.QueryEscape(query) + "&extensions=" + url.QueryEscape(albumEndPath)
	}

	status, body, err := request(endpoint)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", status)
	}
	return body, nil
}

func processItems(body []byte, resourceType string) []Track {
	root := gjson.ParseBytes(body)

	itemList := "data.playlistV2.content.items"
	titlePath := "itemV2.data.name"
	artistPath := "itemV2.data.artists.items.0.profile.name"
	albumPath := "itemV2.data.albumOfTrack.name"
	durationPath := "itemV2.data.trackDuration.totalMilliseconds"
	if resourceType == "album" {
		itemList = "data.albumUnion.tracks.items"
		titlePath = "track.name"
		artistPath = "track.artists.items.0.profile.name"
		durationPath = "track.duration.totalMilliseconds"
	}
	albumName := root.Get("data.albumUnion.name").String()

	var tracks []Track
	root.Get(itemList).ForEach(func(_, item gjson.Result) bool {
		album := albumName
		if resourceType == "playlist" {
			album = item.Get(albumPath).String()
		}
		tracks = append(tracks, Track{
			Title:    item.Get(titlePath).String(),
			Artist:   item.Get(artistPath).String(),
			Album:    album,
			Duration: float64(item.Get(durationPath).Int()) / 1000,
		})
		return true
	})
	return tracks
}
