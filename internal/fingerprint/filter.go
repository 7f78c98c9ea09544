package fingerprint

import "math"

// LowPassFilter is a first-order low-pass filter, H(p) = 1 / (1 + pRC).
type LowPassFilter struct {
	alpha float64
	yPrev float64
}

// NewLowPassFilter creates a low-pass filter for the given cutoff frequency
// and sample rate.
func NewLowPassFilter(cutoffFrequency, sampleRate float64) *LowPassFilter {
	rc := 1.0 / (2.0 * math.Pi * cutoffFrequency)
	dt := 1.0 / sampleRate
	return &LowPassFilter{alpha: dt / (rc + dt)}
}

// Filter processes the input signal and returns the filtered result.
func (f *LowPassFilter) Filter(input []float64) []float64 {
	filtered := make([]float64, len(input))
	for i, x := range input {
		var y float64
		if i == 0 {
			y = x * f.alpha
		} else {
			y = f.alpha*x + (1-f.alpha)*f.yPrev
		}
		f.yPrev = y
		filtered[i] = y
	}
	return filtered
}
