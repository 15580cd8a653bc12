package clipping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/shootout/internal/audit/clipping"
	"github.com/farcloser/shootout/internal/types"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	samples := []float32{
		0.1, 1, 0.2, // lone peak, not an event
		1, 1, 1, 0.3, // run of three
		-1, -1, // negative rail
		0, 1, 1, 1, 1, // trailing run of four
	}

	got := clipping.Detect(types.NewAudioBuffer(samples, 44100), clipping.DefaultOptions())

	assert.Equal(t, &types.ClippingDetection{
		Events:         3,
		ClippedSamples: 9,
		LongestRun:     4,
		Samples:        uint64(len(samples)),
	}, got)
}

func TestDetectThreshold(t *testing.T) {
	t.Parallel()

	buf := types.NewAudioBuffer([]float32{0.95, 0.96, 0.5}, 44100)

	assert.Zero(t, clipping.Detect(buf, clipping.DefaultOptions()).Events)
	assert.Equal(t, uint64(1), clipping.Detect(buf, clipping.Options{Threshold: 0.9}).Events)
	assert.Zero(t, clipping.Detect(types.NewAudioBuffer(nil, 44100), clipping.Options{}).Samples)
}
