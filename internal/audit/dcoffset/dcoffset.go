// Package dcoffset measures the mean sample value. Interfaces with a DC bias skew RMS based normalization.
package dcoffset

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/shootout/internal/audit/shared"
	"github.com/farcloser/shootout/internal/types"
)

func Detect(buf *types.AudioBuffer) *types.DCOffsetResult {
	if len(buf.Samples) == 0 {
		return &types.DCOffsetResult{OffsetDb: shared.FloorDb}
	}

	samples := make([]float64, len(buf.Samples))
	for i, s := range buf.Samples {
		samples[i] = float64(s)
	}

	offset := stat.Mean(samples, nil)

	return &types.DCOffsetResult{
		Offset:   offset,
		OffsetDb: shared.LevelDb(math.Abs(offset)),
		Samples:  uint64(len(buf.Samples)),
	}
}

// Remove returns a copy of buf with its mean subtracted.
func Remove(buf *types.AudioBuffer) *types.AudioBuffer {
	out := buf.Clone()

	offset := float32(Detect(buf).Offset)
	for i := range out.Samples {
		out.Samples[i] -= offset
	}

	return out
}
