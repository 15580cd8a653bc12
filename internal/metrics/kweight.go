package metrics

import "math"

const (
	loudnessOffset   = -0.691
	absoluteGateLufs = -70.0
	relativeGateLu   = -10.0
	blockSeconds     = 0.4
	hopSeconds       = 0.1
	// Filter corners are kept below Nyquist so low rates stay stable.
	maxCornerRatio = 0.45
)

// Biquad filter coefficients.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// Biquad filter state.
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out

	return out
}

// kWeightingFilters returns the BS.1770 head-related high shelf and the RLB high-pass,
// derived from their analog prototypes for the given rate.
func kWeightingFilters(sampleRate float64) (shelf, highPass biquad) {
	f0 := min(1681.974450955533, maxCornerRatio*sampleRate)
	gain := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * f0 / sampleRate)
	vh := math.Pow(10, gain/20)
	vb := math.Pow(vh, 0.4996667741545416)

	a0 := 1 + k/q + k*k
	shelf.b0 = (vh + vb*k/q + k*k) / a0
	shelf.b1 = 2 * (k*k - vh) / a0
	shelf.b2 = (vh - vb*k/q + k*k) / a0
	shelf.a1 = 2 * (k*k - 1) / a0
	shelf.a2 = (1 - k/q + k*k) / a0

	f0 = min(38.13547087602444, maxCornerRatio*sampleRate)
	q = 0.5003270373238773

	k = math.Tan(math.Pi * f0 / sampleRate)

	a0 = 1 + k/q + k*k
	highPass.b0 = 1 / a0
	highPass.b1 = -2 / a0
	highPass.b2 = 1 / a0
	highPass.a1 = 2 * (k*k - 1) / a0
	highPass.a2 = (1 - k/q + k*k) / a0

	return shelf, highPass
}

// kWeighted filters samples through both stages into a new slice.
func kWeighted(samples []float64, sampleRate float64) []float64 {
	shelf, highPass := kWeightingFilters(sampleRate)

	var shelfState, highPassState biquadState

	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = highPassState.process(&highPass, shelfState.process(&shelf, s))
	}

	return out
}

func loudness(samples []float64, sampleRate float64, mode LoudnessMode) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return math.Inf(-1)
	}

	weighted := kWeighted(samples, sampleRate)

	if mode == LoudnessGated {
		if lufs, ok := gatedLoudness(weighted, sampleRate); ok {
			return lufs
		}
	}

	meanSquare := 0.0
	for _, w := range weighted {
		meanSquare += w * w
	}

	meanSquare /= float64(len(weighted))

	if meanSquare <= 0 {
		return math.Inf(-1)
	}

	return loudnessOffset + 10*math.Log10(meanSquare)
}

// gatedLoudness measures 400 ms blocks every 100 ms, then applies the absolute and relative gates.
// It reports false when the input is shorter than one block.
func gatedLoudness(weighted []float64, sampleRate float64) (float64, bool) {
	blockSize := int(sampleRate * blockSeconds)
	hopSize := max(1, int(sampleRate*hopSeconds))

	if blockSize == 0 || len(weighted) < blockSize {
		return 0, false
	}

	var powers []float64

	for start := 0; start+blockSize <= len(weighted); start += hopSize {
		var sum float64
		for _, w := range weighted[start : start+blockSize] {
			sum += w * w
		}

		powers = append(powers, sum/float64(blockSize))
	}

	return integratedLoudness(powers), true
}

func integratedLoudness(powers []float64) float64 {
	gated := func(threshold float64) (float64, int) {
		var (
			sum   float64
			count int
		)

		for _, p := range powers {
			if p > 0 && loudnessOffset+10*math.Log10(p) > threshold {
				sum += p
				count++
			}
		}

		return sum, count
	}

	sum, count := gated(absoluteGateLufs)
	if count == 0 {
		return math.Inf(-1)
	}

	relative := loudnessOffset + 10*math.Log10(sum/float64(count)) + relativeGateLu

	sum, count = gated(relative)
	if count == 0 {
		return math.Inf(-1)
	}

	return loudnessOffset + 10*math.Log10(sum/float64(count))
}
