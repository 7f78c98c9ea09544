// Package match scores recorded audio against the fingerprint index.
package match

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/songscout/songscout/internal/fingerprint"
	"github.com/songscout/songscout/internal/store"
	"github.com/songscout/songscout/internal/wav"
)

// timingToleranceMs is the allowed drift between a pair of sample-side
// anchor deltas and the corresponding database-side deltas.
const timingToleranceMs = 100.0

// Match is one candidate song with its confidence score.
type Match struct {
	SongID    uint32  `json:"songID"`
	SongTitle string  `json:"songTitle"`
	Artist    string  `json:"songArtist"`
	YouTubeID string  `json:"youTubeID"`
	Timestamp uint32  `json:"timestamp"`
	Score     float64 `json:"score"`
}

// FindMatchesForFile reads a WAV file and matches it against the index.
func FindMatchesForFile(ctx context.Context, db store.Store, filePath string) ([]Match, time.Duration, error) {
	info, err := wav.ReadInfo(filePath)
	if err != nil {
		return nil, 0, err
	}
	samples, err := wav.BytesToSamples(info.Data)
	if err != nil {
		return nil, 0, err
	}
	return FindMatches(ctx, db, samples, info.Duration, info.SampleRate)
}

// FindMatches fingerprints the audio samples and returns candidate songs
// sorted in descending order by score, along with the search duration.
func FindMatches(ctx context.Context, db store.Store, samples []float64, duration float64, sampleRate int) ([]Match, time.Duration, error) {
	start := time.Now()

	spectro, err := fingerprint.Spectrogram(samples, sampleRate)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get spectrogram of samples: %w", err)
	}
	peaks := fingerprint.ExtractPeaks(spectro, duration)
	fingerprints := fingerprint.Fingerprint(peaks, randomQueryID())

	addresses := make([]uint32, 0, len(fingerprints))
	for address := range fingerprints {
		addresses = append(addresses, address)
	}

	couplesMap, err := db.GetCouples(ctx, addresses)
	if err != nil {
		return nil, 0, err
	}

	// song ID -> list of [sample anchor ms, db anchor ms] pairs
	matchPairs := make(map[uint32][][2]uint32)
	timestamps := make(map[uint32][]uint32)

	for address, couples := range couplesMap {
		sampleTime := fingerprints[address].AnchorTimeMs
		for _, couple := range couples {
			matchPairs[couple.SongID] = append(matchPairs[couple.SongID],
				[2]uint32{sampleTime, couple.AnchorTimeMs})
			timestamps[couple.SongID] = append(timestamps[couple.SongID], couple.AnchorTimeMs)
		}
	}

	scores := analyzeRelativeTiming(matchPairs)

	matches := make([]Match, 0, len(scores))
	for songID, points := range scores {
		song, found, err := db.GetSongByID(ctx, songID)
		if err != nil {
			return nil, 0, err
		}
		if !found {
			continue
		}
		ts := timestamps[songID]
		sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })
		var first uint32
		if len(ts) > 0 {
			first = ts[0]
		}
		matches = append(matches, Match{
			SongID:    songID,
			SongTitle: song.Title,
			Artist:    song.Artist,
			YouTubeID: song.YouTubeID,
			Timestamp: first,
			Score:     points,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, time.Since(start), nil
}

// analyzeRelativeTiming counts, per song, the pairs of matches whose
// sample-side and database-side time differences agree within tolerance.
// Songs whose matches keep consistent relative timing score high.
func analyzeRelativeTiming(matches map[uint32][][2]uint32) map[uint32]float64 {
	scores := make(map[uint32]float64, len(matches))
	for songID, times := range matches {
		count := 0
		for i := 0; i < len(times); i++ {
			for j := i + 1; j < len(times); j++ {
				sampleDiff := math.Abs(float64(times[i][0]) - float64(times[j][0]))
				dbDiff := math.Abs(float64(times[i][1]) - float64(times[j][1]))
				if math.Abs(sampleDiff-dbDiff) < timingToleranceMs {
					count++
				}
			}
		}
		scores[songID] = float64(count)
	}
	return scores
}

func randomQueryID() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}
