// Package truncation measures how a DI recording ends. A take that stops while the string is still ringing
// was cut short, and the chains will render an abrupt ending.
package truncation

import (
	"math"

	"github.com/farcloser/shootout/internal/audit/shared"
	"github.com/farcloser/shootout/internal/types"
)

const defaultWindowMs = 50

// Detect measures the RMS and peak of the final windowMs of buf. Zero means 50ms.
func Detect(buf *types.AudioBuffer, windowMs int) *types.TruncationDetection {
	if windowMs <= 0 {
		windowMs = defaultWindowMs
	}

	tail := max(int(buf.SampleRate)*windowMs/1000, 1)
	start := max(len(buf.Samples)-tail, 0)
	data := buf.Samples[start:]

	if len(data) == 0 {
		return &types.TruncationDetection{FinalRmsDb: shared.FloorDb, FinalPeakDb: shared.FloorDb}
	}

	var sumSquares, peak float64

	for _, s := range data {
		v := float64(s)
		sumSquares += v * v
		peak = max(peak, math.Abs(v))
	}

	return &types.TruncationDetection{
		FinalRmsDb:    shared.LevelDb(math.Sqrt(sumSquares / float64(len(data)))),
		FinalPeakDb:   shared.LevelDb(peak),
		SamplesInTail: uint64(len(data)),
	}
}
