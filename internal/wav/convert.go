package wav

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConvertToWAV converts an input audio file to 44.1kHz 16-bit PCM WAV with
// the given channel count (clamped to 1 or 2). The result is written next to
// the input, with the extension replaced by ".wav". Conversion goes through
// a temporary file so a failed ffmpeg run never leaves a partial output.
func ConvertToWAV(inputPath string, channels int) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("input file does not exist: %s", inputPath)
	}
	if channels < 1 || channels > 2 {
		channels = 1
	}

	outputFile := stripExt(inputPath) + ".wav"
	dir, base := filepath.Split(inputPath)
	tmpFile := filepath.Join(dir, "tmp_"+stripExt(base)+".wav")

	out, err := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", fmt.Sprint(channels),
		tmpFile,
	).CombinedOutput()
	if err != nil {
		os.Remove(tmpFile)
		return "", fmt.Errorf("failed to convert to WAV: %w. output: %s", err, out)
	}

	if fi, err := os.Stat(tmpFile); err != nil || fi.Size() == 0 {
		return "", fmt.Errorf("ffmpeg did not produce a valid output file")
	}

	if err := os.Rename(tmpFile, outputFile); err != nil {
		return "", fmt.Errorf("failed to rename temporary file to output file: %w", err)
	}
	return outputFile, nil
}

// ReformatWAV re-encodes a WAV file to 44.1kHz 16-bit PCM with the given
// channel count (clamped to 1 or 2). The output gets "rfm.wav" appended to
// the original base name.
func ReformatWAV(inputPath string, channels int) (string, error) {
	if channels < 1 || channels > 2 {
		channels = 1
	}

	outputFile := stripExt(inputPath) + "rfm.wav"

	out, err := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-c", "pcm_s16le",
		"-ar", "44100",
		"-ac", fmt.Sprint(channels),
		outputFile,
	).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to convert to WAV: %w. output: %s", err, out)
	}
	return outputFile, nil
}

// Metadata is the subset of ffprobe output the pipeline inspects.
type Metadata struct {
	Streams []StreamInfo `json:"streams"`
	Format  FormatInfo   `json:"format"`
}

type StreamInfo struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	SampleFmt     string `json:"sample_fmt,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	BitsPerSample int    `json:"bits_per_sample,omitempty"`
	Duration      string `json:"duration,omitempty"`
	BitRate       string `json:"bit_rate,omitempty"`
}

type FormatInfo struct {
	NBStreams      int               `json:"nb_streams"`
	Filename       string            `json:"filename"`
	FormatName     string            `json:"format_name"`
	FormatLongName string            `json:"format_long_name"`
	StartTime      string            `json:"start_time"`
	Duration       string            `json:"duration"`
	Size           string            `json:"size"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// GetMetadata retrieves stream and format metadata via ffprobe.
func GetMetadata(filePath string) (*Metadata, error) {
	out, err := exec.Command("ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(out, &md); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &md, nil
}

func stripExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
