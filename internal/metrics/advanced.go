package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/shootout/internal/types"
)

func extractAdvanced(samples []float64, sampleRate float64, opts Options) types.AdvancedMetrics {
	return types.AdvancedMetrics{
		LufsIntegrated:         loudness(samples, sampleRate, opts.Loudness),
		TransientDensity:       transientDensity(samples, sampleRate, opts),
		AttackTimeMs:           attackTime(samples, sampleRate, opts.AttackThresholdRatio),
		SustainDecayRateDbPerS: sustainDecayRate(samples, sampleRate, opts),
	}
}

// transientDensity counts onsets per second: rising edges of the smoothed envelope through
// rms * 10^(threshold/20), at least TransientMinGapMs apart.
func transientDensity(samples []float64, sampleRate float64, opts Options) float64 {
	level := rms(samples)
	if level == 0 || sampleRate <= 0 {
		return 0
	}

	envelope := smooth(rectify(samples), max(1, int(sampleRate*opts.TransientSmoothingMs/1000)))
	threshold := level * math.Pow(10, opts.TransientThresholdDb/20)
	minGap := int(sampleRate * opts.TransientMinGapMs / 1000)

	count := 0
	last := 0

	for i := range len(envelope) - 1 {
		if envelope[i] > threshold || envelope[i+1] <= threshold {
			continue
		}

		if count == 0 || i-last >= minGap {
			count++
			last = i
		}
	}

	return float64(count) / (float64(len(samples)) / sampleRate)
}

// attackTime is the delay from the first sample above max(3 * noise floor, 1% of peak)
// to the first later sample above ratio * peak.
func attackTime(samples []float64, sampleRate, ratio float64) float64 {
	envelope := rectify(samples)

	top := peak(envelope)
	if top == 0 || sampleRate <= 0 {
		return 0
	}

	noiseSamples := min(int(sampleRate*0.01), max(1, len(envelope)/100))

	noiseFloor := 0.0
	if noiseSamples > 0 {
		noiseFloor = floats.Sum(envelope[:noiseSamples]) / float64(noiseSamples)
	}

	startThreshold := max(3*noiseFloor, 0.01*top)

	start := slices.IndexFunc(envelope, func(v float64) bool { return v > startThreshold })
	if start < 0 {
		return 0
	}

	reached := slices.IndexFunc(envelope[start:], func(v float64) bool { return v > ratio*top })
	if reached < 0 {
		reached = floats.MaxIdx(envelope[start:])
	}

	return float64(reached) / sampleRate * 1000
}

// sustainDecayRate compares the mean envelope of the two halves of consecutive windows after the
// smoothed peak and returns the median slope in dB per second.
func sustainDecayRate(samples []float64, sampleRate float64, opts Options) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}

	envelope := smooth(rectify(samples), max(1, int(sampleRate*opts.SustainSmoothingMs/1000)))

	peakIdx := floats.MaxIdx(envelope)
	if envelope[peakIdx] == 0 {
		return 0
	}

	decay := envelope[peakIdx:]
	if len(decay) < 2 {
		return 0
	}

	window := max(2, int(sampleRate*opts.SustainWindowMs/1000))
	half := window / 2
	halfSeconds := float64(window) / 2 / sampleRate

	var rates []float64

	for i := 0; i < len(decay)-window; i += window {
		first := floats.Sum(decay[i:i+half]) / float64(half)
		second := floats.Sum(decay[i+half:i+window]) / float64(window-half)

		if first > 0 && second > 0 {
			rates = append(rates, 20*math.Log10(second/first)/halfSeconds)
		}
	}

	return median(rates)
}

func rectify(samples []float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = math.Abs(s)
	}

	return out
}

// smooth applies a centered moving average of width samples, output aligned with the input and
// zero-extended at the edges.
func smooth(samples []float64, width int) []float64 {
	if width <= 1 || len(samples) == 0 {
		return slices.Clone(samples)
	}

	prefix := make([]float64, len(samples)+1)
	floats.CumSum(prefix[1:], samples)

	before := width / 2
	after := (width - 1) / 2

	out := make([]float64, len(samples))
	for i := range out {
		lo := max(0, i-before)
		hi := min(len(samples), i+after+1)
		out[i] = (prefix[hi] - prefix[lo]) / float64(width)
	}

	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}
