package truncation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/shootout/internal/audit/truncation"
	"github.com/farcloser/shootout/internal/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = 0.5
	}

	got := truncation.Detect(types.NewAudioBuffer(samples, 1000), 100)
	assert.Equal(t, uint64(100), got.SamplesInTail)
	assert.InDelta(t, -6.02, got.FinalRmsDb, 0.01)
	assert.InDelta(t, -6.02, got.FinalPeakDb, 0.01)

	for i := 900; i < 1000; i++ {
		samples[i] = 0
	}

	silent := truncation.Detect(types.NewAudioBuffer(samples, 1000), 100)
	assert.InDelta(t, -120.0, silent.FinalRmsDb, 0)
}

func TestDetectShortBuffer(t *testing.T) {
	t.Parallel()

	got := truncation.Detect(types.NewAudioBuffer([]float32{1, -1}, 48000), 0)
	assert.Equal(t, uint64(2), got.SamplesInTail)
	assert.InDelta(t, 0.0, got.FinalPeakDb, 1e-9)

	empty := truncation.Detect(types.NewAudioBuffer(nil, 48000), 0)
	assert.Zero(t, empty.SamplesInTail)
	assert.InDelta(t, -120.0, empty.FinalPeakDb, 0)
}
