package fingerprint

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of the input signal using a
// recursive radix-2 decomposition. The input length must be a power of two
// for a correct transform (the spectrogram always passes full windows).
func FFT(input []float64) []complex128 {
	data := make([]complex128, len(input))
	for i, v := range input {
		data[i] = complex(v, 0)
	}
	return recursiveFFT(data)
}

func recursiveFFT(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		return data
	}

	even := make([]complex128, 0, n/2)
	odd := make([]complex128, 0, n/2)
	for i, v := range data {
		if i%2 == 0 {
			even = append(even, v)
		} else {
			odd = append(odd, v)
		}
	}

	fftEven := recursiveFFT(even)
	fftOdd := recursiveFFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		t := cmplx.Rect(1, -2*math.Pi*float64(k)/float64(n)) * fftOdd[k]
		result[k] = fftEven[k] + t
		result[k+n/2] = fftEven[k] - t
	}
	return result
}
