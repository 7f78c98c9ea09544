package download

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// durationMatchThreshold is the allowed difference (seconds) between the
// Spotify track duration and a YouTube result's duration.
const durationMatchThreshold = 5

// SearchResult is one entry scraped from a YouTube search page.
type SearchResult struct {
	Title    string
	Uploader string
	URL      string
	Duration string
	ID       string
	Live     bool
}

// ParseDuration converts a duration string in HH:MM:SS, MM:SS or SS format
// into seconds.
func ParseDuration(durationStr string) int {
	parts := strings.Split(durationStr, ":")
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	switch len(parts) {
	case 1:
		return atoi(parts[0])
	case 2:
		return atoi(parts[0])*60 + atoi(parts[1])
	case 3:
		return atoi(parts[0])*3600 + atoi(parts[1])*60 + atoi(parts[2])
	}
	return 0
}

// GetYouTubeID searches YouTube for the track and returns the ID of the
// first result whose duration matches within the threshold.
func GetYouTubeID(track *Track) (string, error) {
	searchQuery := fmt.Sprintf("'%s' %s", track.Title, track.Artist)
	results, err := Search(searchQuery, 10)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no songs found for %s", searchQuery)
	}

	want := int(track.Duration)
	for _, result := range results {
		got := ParseDuration(result.Duration)
		if got >= want-durationMatchThreshold && got <= want+durationMatchThreshold {
			return result.ID, nil
		}
	}
	return "", fmt.Errorf("could not settle on a song from search result for: %s", searchQuery)
}

// Search scrapes the YouTube search results page and returns up to limit
// results from its ytInitialData blob.
func Search(searchTerm string, limit int) ([]SearchResult, error) {
	searchURL := "https://www.youtube.com/results?search_query=" + url.QueryEscape(searchTerm)
	req, err := http.NewRequest(http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make a request to youtube: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to make a request to youtube")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	jsonData, err := extractInitialData(string(body))
	if err != nil {
		return nil, err
	}
	return parseSearchResults(jsonData, limit), nil
}

// extractInitialData locates the ytInitialData JSON blob in the page source.
func extractInitialData(body string) (string, error) {
	for _, marker := range []string{`window["ytInitialData"] = `, "var ytInitialData = "} {
		idx := strings.Index(body, marker)
		if idx < 0 {
			continue
		}
		tail := body[idx+len(marker):]
		end := strings.Index(tail, ";</script>")
		if end < 0 {
			return "", fmt.Errorf("invalid response from youtube (cannot find end marker)")
		}
		return tail[:end], nil
	}
	return "", fmt.Errorf("invalid response from youtube")
}

func parseSearchResults(jsonData string, limit int) []SearchResult {
	var results []SearchResult

	sections := gjson.Get(jsonData,
		"contents.twoColumnSearchResultsRenderer.primaryContents.sectionListRenderer.contents")
	sections.ForEach(func(_, section gjson.Result) bool {
		section.Get("itemSectionRenderer.contents").ForEach(func(_, item gjson.Result) bool {
			video := item.Get("videoRenderer")
			if !video.Exists() {
				return true
			}
			videoID := video.Get("videoId").String()
			if videoID == "" {
				return true
			}
			duration := video.Get("lengthText.simpleText").String()
			results = append(results, SearchResult{
				Title:    video.Get("title.runs.0.text").String(),
				Uploader: video.Get("ownerText.runs.0.text").String(),
				Duration: duration,
				ID:       videoID,
				URL:      "https://youtube.com/watch?v=" + videoID,
				Live:     duration == "",
			})
			return len(results) < limit
		})
		return len(results) < limit
	})
	return results
}
