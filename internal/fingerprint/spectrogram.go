package fingerprint

import (
	"fmt"
	"math"
	"math/cmplx"
)

const (
	dspRatio    = 4
	freqBinSize = 1024
	maxFreq     = 5000.0 // 5kHz
	hopSize     = freqBinSize / 32
)

// Spectrogram computes the STFT of the input audio samples: low-pass filter,
// downsample, then windowed FFT. Each row is the FFT of one Hamming-windowed
// segment.
func Spectrogram(samples []float64, sampleRate int) ([][]complex128, error) {
	lpf := NewLowPassFilter(maxFreq, float64(sampleRate))
	filtered := lpf.Filter(samples)

	downsampled, err := Downsample(filtered, sampleRate, sampleRate/dspRatio)
	if err != nil {
		return nil, fmt.Errorf("couldn't downsample audio samples: %w", err)
	}

	numWindows := len(downsampled) / (freqBinSize - hopSize)
	spectrogram := make([][]complex128, 0, numWindows)

	window := make([]float64, freqBinSize)
	for i := range window {
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(freqBinSize-1))
	}

	for i := 0; i < numWindows; i++ {
		start := i * hopSize
		end := start + freqBinSize
		if end > len(downsampled) {
			end = len(downsampled)
		}

		bin := make([]float64, freqBinSize)
		copy(bin, downsampled[start:end])
		for j := range bin {
			bin[j] *= window[j]
		}

		spectrogram = append(spectrogram, FFT(bin))
	}

	return spectrogram, nil
}

// Downsample reduces the sample rate by block-averaging groups of
// originalRate/targetRate consecutive samples.
func Downsample(input []float64, originalRate, targetRate int) ([]float64, error) {
	if targetRate <= 0 || originalRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive")
	}
	if targetRate > originalRate {
		return nil, fmt.Errorf("target sample rate must be less than or equal to original sample rate")
	}
	ratio := originalRate / targetRate
	if ratio <= 0 {
		return nil, fmt.Errorf("invalid ratio calculated from sample rates")
	}

	resampled := make([]float64, 0, len(input)/ratio+1)
	for i := 0; i < len(input); i += ratio {
		end := i + ratio
		if end > len(input) {
			end = len(input)
		}
		var sum float64
		for _, v := range input[i:end] {
			sum += v
		}
		resampled = append(resampled, sum/float64(end-i))
	}
	return resampled, nil
}

// Peak is a significant point in the spectrogram: its time within the audio
// (seconds) and the complex frequency value at that point.
type Peak struct {
	Time float64
	Freq complex128
}

// Frequency bands (FFT bin index ranges) used for peak extraction.
var peakBands = [][2]int{{0, 10}, {10, 20}, {20, 40}, {40, 80}, {80, 160}, {160, 512}}

// ExtractPeaks finds, per time window, the strongest frequency in each band
// and keeps those above the across-band average magnitude.
func ExtractPeaks(spectrogram [][]complex128, audioDuration float64) []Peak {
	if len(spectrogram) == 0 {
		return nil
	}

	type bandMax struct {
		mag     float64
		freq    complex128
		freqIdx int
	}

	var peaks []Peak
	binDuration := audioDuration / float64(len(spectrogram))

	for binIdx, bin := range spectrogram {
		maxies := make([]bandMax, 0, len(peakBands))
		for _, band := range peakBands {
			entry := bandMax{freqIdx: band[0]}
			for idx, freq := range bin[band[0]:band[1]] {
				if mag := cmplx.Abs(freq); mag > entry.mag {
					entry = bandMax{mag: mag, freq: freq, freqIdx: band[0] + idx}
				}
			}
			maxies = append(maxies, entry)
		}

		var sum float64
		for _, m := range maxies {
			sum += m.mag
		}
		avg := sum / float64(len(maxies))

		for _, m := range maxies {
			if m.mag > avg {
				peakTimeInBin := float64(m.freqIdx) * binDuration / float64(len(bin))
				peaks = append(peaks, Peak{
					Time: float64(binIdx)*binDuration + peakTimeInBin,
					Freq: m.freq,
				})
			}
		}
	}

	return peaks
}
