package metrics

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/farcloser/shootout/internal/types"
)

// Band edges in Hz. Bass and mid are half-open, treble is closed and capped at Nyquist.
const (
	bassLow    = 20.0
	bassHigh   = 250.0
	midHigh    = 2000.0
	trebleHigh = 20000.0

	// FFTPACK falls back to a quadratic pass for each large prime factor.
	maxPrimeFactor = 31
)

func extractSpectral(samples []float64, sampleRate float64) types.SpectralMetrics {
	if len(samples) == 0 || sampleRate <= 0 {
		return types.SpectralMetrics{}
	}

	size := fftLength(len(samples))

	fftIn := make([]float64, size)
	copy(fftIn, samples)

	fft := fourier.NewFFT(size)
	coeffs := fft.Coefficients(nil, fftIn)

	binHz := sampleRate / float64(size)
	trebleTop := min(trebleHigh, sampleRate/2)

	var (
		weighted, magnitude        float64
		bassPow, midPow, treblePow float64
	)

	for k, c := range coeffs {
		freq := float64(k) * binHz
		mag := cmplx.Abs(c)
		power := mag * mag

		weighted += freq * mag
		magnitude += mag

		switch {
		case freq >= bassLow && freq < bassHigh:
			bassPow += power
		case freq >= bassHigh && freq < midHigh:
			midPow += power
		case freq >= midHigh && freq <= trebleTop:
			treblePow += power
		default:
		}
	}

	result := types.SpectralMetrics{}

	if magnitude > 0 {
		result.SpectralCentroidHz = weighted / magnitude
	}

	if total := bassPow + midPow + treblePow; total > 0 {
		result.BassRatio = bassPow / total
		result.MidRatio = midPow / total
		result.TrebleRatio = treblePow / total
	}

	return result
}

// fftLength keeps the buffer length when it factors into small primes, and otherwise zero-pads
// to the next 2·3·5-smooth size.
func fftLength(n int) int {
	if largestPrimeFactor(n) <= maxPrimeFactor {
		return n
	}

	for size := n; ; size++ {
		if largestPrimeFactor(size) <= 5 {
			return size
		}
	}
}

func largestPrimeFactor(n int) int {
	largest := 1

	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			largest = p
			n /= p
		}
	}

	if n > 1 {
		largest = max(largest, n)
	}

	return largest
}
