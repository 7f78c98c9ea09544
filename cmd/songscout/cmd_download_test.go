package main

import "testing"

func TestDownloadKind(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "track"},
		{"https://open.spotify.com/album/1ATL5GLyefJaxhQzSPVrLX", "album"},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", "playlist"},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abcdefgh12345678", "track"},
		{"https://example.com/something", ""},
		{"not-a-url", ""},
	}
	for _, tc := range cases {
		if got := downloadKind(tc.url); got != tc.want {
			t.Errorf("downloadKind(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
