// Package wav reads and writes PCM WAV files and converts between
// byte-level PCM data and float64 sample slices used by the
// fingerprinting pipeline.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const headerSize = 44

// Header is the canonical 44-byte RIFF/WAVE PCM header.
type Header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BytesPerSec   uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteHeader writes a PCM WAV header for the given data to buf.
func WriteHeader(buf *bytes.Buffer, data []byte, sampleRate, channels, bitsPerSample int) error {
	if channels == 0 || len(data)%channels != 0 {
		return fmt.Errorf("data size not divisible by channels")
	}

	bytesPerSample := uint32(bitsPerSample / 8)
	hdr := Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(len(data)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16, // PCM
		AudioFormat:   1,  // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		BytesPerSec:   uint32(sampleRate) * uint32(channels) * bytesPerSample,
		BlockAlign:    uint16(channels) * uint16(bytesPerSample),
		BitsPerSample: uint16(bitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(data)),
	}
	return binary.Write(buf, binary.LittleEndian, &hdr)
}

// WriteFile creates a WAV file with the given PCM data and format.
func WriteFile(filename string, data []byte, sampleRate, channels, bitsPerSample int) error {
	if sampleRate <= 0 || channels <= 0 || bitsPerSample <= 0 {
		return fmt.Errorf("values must be greater than zero (sampleRate: %d, channels: %d, bitsPerSample: %d)",
			sampleRate, channels, bitsPerSample)
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, data, sampleRate, channels, bitsPerSample); err != nil {
		return err
	}
	buf.Write(data)
	return os.WriteFile(filename, buf.Bytes(), 0o644)
}

// Info holds header fields and raw PCM data extracted from a WAV file.
type Info struct {
	Channels   int
	SampleRate int
	Data       []byte
	Duration   float64 // seconds
}

// ReadInfo reads a WAV file and extracts header information along with the
// PCM payload. Only 16-bit PCM is supported.
func ReadInfo(filename string) (*Info, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if len(raw) < headerSize {
		return nil, fmt.Errorf("invalid WAV file size (too small)")
	}

	var hdr Header
	if err := binary.Read(bytes.NewReader(raw[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	if hdr.ChunkID != [4]byte{'R', 'I', 'F', 'F'} ||
		hdr.Format != [4]byte{'W', 'A', 'V', 'E'} ||
		hdr.AudioFormat != 1 {
		return nil, fmt.Errorf("invalid WAV header format")
	}
	if hdr.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bits per sample format")
	}

	info := &Info{
		Channels:   int(hdr.NumChannels),
		SampleRate: int(hdr.SampleRate),
		Data:       raw[headerSize:],
	}
	info.Duration = float64(len(info.Data)) /
		(float64(hdr.NumChannels) * 2.0 * float64(hdr.SampleRate))
	return info, nil
}

// BytesToSamples converts 16-bit little-endian PCM bytes to float64 samples
// scaled to [-1, 1].
func BytesToSamples(input []byte) ([]float64, error) {
	if len(input)%2 != 0 {
		return nil, fmt.Errorf("invalid input length")
	}
	out := make([]float64, len(input)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(input[i*2:]))
		out[i] = float64(s) / 32768.0
	}
	return out, nil
}

// FloatsToBytes converts float64 samples in [-1, 1] to little-endian PCM
// bytes at the given bit depth. Supported depths: 8, 16, 24, 32.
func FloatsToBytes(data []float64, bitsPerSample int) ([]byte, error) {
	switch bitsPerSample {
	case 8:
		out := make([]byte, len(data))
		for i, s := range data {
			out[i] = byte(math.Round((s + 1.0) * 127.5))
		}
		return out, nil
	case 16:
		out := make([]byte, 0, len(data)*2)
		for _, s := range data {
			v := int16(math.Round(s * 32767.0))
			out = binary.LittleEndian.AppendUint16(out, uint16(v))
		}
		return out, nil
	case 24:
		out := make([]byte, 0, len(data)*3)
		for _, s := range data {
			v := int32(math.Round(s * 8388607.0))
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(v))
			out = append(out, buf[:3]...)
		}
		return out, nil
	case 32:
		out := make([]byte, 0, len(data)*4)
		for _, s := range data {
			v := int32(math.Round(s * 2147483647.0))
			out = binary.LittleEndian.AppendUint32(out, uint32(v))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported bitsPerSample: %d", bitsPerSample)
}
