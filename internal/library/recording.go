package library

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/songscout/songscout/internal/wav"
)

// RecordData is the payload clients send for recognition: base64 PCM audio
// plus the format it was captured in.
type RecordData struct {
	Audio      string  `json:"audio"`
	Duration   float64 `json:"duration"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sampleRate"`
	SampleSize int     `json:"sampleSize"`
}

// ProcessRecording decodes a client recording into float64 samples: base64
// decode, write a temporary WAV, reformat to 44.1kHz mono, then extract
// samples. When keep is true the reformatted file is moved into
// recordingsDir instead of being deleted.
func ProcessRecording(rec *RecordData, tmpDir, recordingsDir string, keep bool) ([]float64, error) {
	decoded, err := base64.StdEncoding.DecodeString(rec.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio data: %w", err)
	}

	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, err
	}

	now := time.Now()
	fileName := fmt.Sprintf("%04d_%02d_%02d_%02d_%02d_%02d.wav",
		now.Second(), now.Minute(), now.Hour(), now.Day(), int(now.Month()), now.Year())
	filePath := filepath.Join(tmpDir, fileName)

	if err := wav.WriteFile(filePath, decoded, rec.SampleRate, rec.Channels, rec.SampleSize); err != nil {
		return nil, err
	}
	defer os.Remove(filePath)

	reformatted, err := wav.ReformatWAV(filePath, 1)
	if err != nil {
		return nil, err
	}

	info, err := wav.ReadInfo(reformatted)
	if err != nil {
		os.Remove(reformatted)
		return nil, err
	}
	samples, err := wav.BytesToSamples(info.Data)
	if err != nil {
		os.Remove(reformatted)
		return nil, err
	}

	if keep {
		if err := os.MkdirAll(recordingsDir, 0o755); err == nil {
			_ = os.Rename(reformatted, filepath.Join(recordingsDir, filepath.Base(reformatted)))
			return samples, nil
		}
	}
	os.Remove(reformatted)
	return samples, nil
}
