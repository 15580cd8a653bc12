package metrics

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/shootout/internal/types"
)

func extractCore(samples []float64, sampleRate float64, opts Options) types.CoreMetrics {
	rmsDb := toDb(rms(samples))
	peakDb := toDb(peak(samples))

	crest := 0.0
	if !math.IsInf(rmsDb, -1) {
		crest = peakDb - rmsDb
	}

	return types.CoreMetrics{
		RmsDbfs:        rmsDb,
		PeakDbfs:       peakDb,
		CrestFactorDb:  crest,
		DynamicRangeDb: dynamicRange(samples, sampleRate, opts.DynamicRangeWindowMs),
	}
}

// dynamicRange is 20*log10(p95/p5) over the RMS of consecutive fixed windows, skipping silent windows.
// A trailing partial window is ignored.
func dynamicRange(samples []float64, sampleRate, windowMs float64) float64 {
	window := max(1, int(sampleRate*windowMs/1000))
	count := max(1, len(samples)/window)

	levels := make([]float64, 0, count)

	for i := range count {
		start := i * window
		if start >= len(samples) {
			break
		}

		if level := rms(samples[start:min(start+window, len(samples))]); level > 0 {
			levels = append(levels, level)
		}
	}

	if len(levels) < 2 {
		return 0
	}

	slices.Sort(levels)

	loud := percentile(levels, 0.95)
	quiet := percentile(levels, 0.05)

	if quiet <= 0 {
		return 0
	}

	return 20 * math.Log10(loud/quiet)
}

// percentile interpolates linearly between the two sorted values around rank (n-1)*p.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	rank := float64(len(sorted)-1) * p
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	return sorted[lower] + (sorted[upper]-sorted[lower])*(rank-float64(lower))
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

func peak(samples []float64) float64 {
	var result float64

	for _, s := range samples {
		result = max(result, math.Abs(s))
	}

	return result
}

func toDb(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
