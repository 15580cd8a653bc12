package dropout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/farcloser/shootout/internal/audit/dropout"
	"github.com/farcloser/shootout/internal/types"
)

const rate = 1000

func constant(value float32, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}

	return samples
}

func TestDetectZeroRun(t *testing.T) {
	t.Parallel()

	samples := constant(0.3, 500)
	for i := 200; i < 220; i++ {
		samples[i] = 0
	}

	got := dropout.Detect(types.NewAudioBuffer(samples, rate), dropout.DefaultOptions())

	assert.Equal(t, 1, got.ZeroRunCount)
	assert.Zero(t, got.DeltaCount)
	assert.Equal(t, uint64(500), got.Frames)

	run := got.Events[0]
	assert.Equal(t, types.EventZeroRun, run.Type)
	assert.Equal(t, uint64(200), run.Frame)
	assert.InDelta(t, 0.2, run.TimeSec, 1e-9)
	assert.InDelta(t, 20.0, run.DurationMs, 1e-9)
}

func TestDetectDelta(t *testing.T) {
	t.Parallel()

	samples := constant(0.8, 500)
	samples[250] = 0

	got := dropout.Detect(types.NewAudioBuffer(samples, 48000), dropout.DefaultOptions())

	// Into the hole and back out. A single zero is shorter than a zero run.
	assert.Equal(t, 2, got.DeltaCount)
	assert.Zero(t, got.ZeroRunCount)
	assert.Equal(t, 2, dropout.EventCount(got))
	assert.InDelta(t, -1.94, got.WorstDb, 0.01)
}

func TestDetectIgnores(t *testing.T) {
	t.Parallel()

	// Full scale swings that never touch zero, then a release into trailing digital silence.
	samples := constant(0.8, 300)
	for i := 100; i < 200; i += 2 {
		samples[i] = -0.8
	}

	for i := range 100 {
		samples = append(samples, 0.8*float32(100-i)/100)
	}

	samples = append(samples, make([]float32, 200)...)

	got := dropout.Detect(types.NewAudioBuffer(samples, rate), dropout.DefaultOptions())
	assert.Zero(t, got.DeltaCount)
	assert.Zero(t, got.ZeroRunCount)

	// A gap in material below the quiet threshold.
	quiet := append(constant(0.001, 100), make([]float32, 50)...)
	quiet = append(quiet, constant(0.001, 100)...)

	got = dropout.Detect(types.NewAudioBuffer(quiet, rate), dropout.DefaultOptions())
	assert.Zero(t, dropout.EventCount(got))
}

func TestDetectDCJump(t *testing.T) {
	t.Parallel()

	samples := append(constant(0.1, 200), constant(0.4, 200)...)

	got := dropout.Detect(types.NewAudioBuffer(samples, rate), dropout.DefaultOptions())
	assert.Positive(t, got.DCJumpCount)
	assert.Zero(t, got.DeltaCount)
}

func TestDetectEmpty(t *testing.T) {
	t.Parallel()

	got := dropout.Detect(types.NewAudioBuffer(nil, rate), dropout.Options{})
	assert.Zero(t, dropout.EventCount(got))
	assert.InDelta(t, -120.0, got.WorstDb, 0)
}
