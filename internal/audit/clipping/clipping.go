// Package clipping finds runs of samples pinned at full scale, the mark of a DI recorded too hot.
package clipping

import (
	"math"

	"github.com/farcloser/shootout/internal/audit/shared"
	"github.com/farcloser/shootout/internal/types"
)

// minRun is the shortest run counted as an event. A single full-scale sample is a legal peak.
const minRun = 2

type Options struct {
	Threshold float64 // absolute level counted as clipped (default just under 1.0)
}

func DefaultOptions() Options {
	return Options{Threshold: shared.FullScale}
}

func Detect(buf *types.AudioBuffer, opts Options) *types.ClippingDetection {
	if opts.Threshold <= 0 {
		opts.Threshold = shared.FullScale
	}

	result := &types.ClippingDetection{Samples: uint64(len(buf.Samples))}

	var consecutive uint64

	flush := func() {
		if consecutive >= minRun {
			result.Events++
			result.ClippedSamples += consecutive
			result.LongestRun = max(result.LongestRun, consecutive)
		}

		consecutive = 0
	}

	for _, s := range buf.Samples {
		if math.Abs(float64(s)) >= opts.Threshold {
			consecutive++

			continue
		}

		flush()
	}

	flush()

	return result
}
