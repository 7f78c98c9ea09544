// Package fingerprint implements the audio fingerprinting pipeline:
// spectrogram computation, peak extraction, and address generation for
// matching recordings against the song index.
package fingerprint

const targetZoneSize = 5

// Couple ties a fingerprint address back to where it occurred: the anchor
// peak's time within the song (ms) and the song it belongs to.
type Couple struct {
	AnchorTimeMs uint32 `json:"anchorTimeMs"`
	SongID       uint32 `json:"songID"`
}

// Fingerprint generates fingerprint addresses from a list of peaks. Each
// anchor peak is paired with the next targetZoneSize peaks; the returned map
// associates every address with its anchor time and the given song ID.
func Fingerprint(peaks []Peak, songID uint32) map[uint32]Couple {
	fingerprints := make(map[uint32]Couple)
	for i, anchor := range peaks {
		for j := i + 1; j < len(peaks) && j <= i+targetZoneSize; j++ {
			address := CreateAddress(anchor, peaks[j])
			fingerprints[address] = Couple{
				AnchorTimeMs: uint32(anchor.Time * 1000),
				SongID:       songID,
			}
		}
	}
	return fingerprints
}

// CreateAddress combines the integer parts of the anchor frequency, target
// frequency, and the delta time (ms) between them into a 32-bit address.
func CreateAddress(anchor, target Peak) uint32 {
	anchorFreq := uint32(real(anchor.Freq))
	targetFreq := uint32(real(target.Freq))
	deltaMs := uint32((target.Time - anchor.Time) * 1000)
	return anchorFreq<<23 | targetFreq<<14 | deltaMs
}
