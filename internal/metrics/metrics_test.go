package metrics_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/shootout/internal/metrics"
	"github.com/farcloser/shootout/internal/types"
)

const sampleRate = 44100

func sine(freq, amplitude, seconds float64) []float32 {
	samples := make([]float32, int(seconds*sampleRate))
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}

	return samples
}

func buffer(samples []float32) *types.AudioBuffer {
	return types.NewAudioBuffer(samples, sampleRate)
}

func extract(samples []float32) types.AudioMetrics {
	return metrics.Extract(buffer(samples), metrics.DefaultOptions())
}

func TestFullScaleSine(t *testing.T) {
	t.Parallel()

	got := extract(sine(440, 1.0, 1))

	assert.InDelta(t, -3.0, got.Core.RmsDbfs, 0.5)
	assert.InDelta(t, 0.0, got.Core.PeakDbfs, 0.5)
	assert.InDelta(t, 3.0, got.Core.CrestFactorDb, 0.5)
	assert.InDelta(t, 0.0, got.Core.DynamicRangeDb, 0.1)
	assert.InDelta(t, 1.0, got.DurationSeconds, 1e-9)
	assert.Equal(t, uint32(sampleRate), got.SampleRate)
}

func TestSilence(t *testing.T) {
	t.Parallel()

	for name, samples := range map[string][]float32{
		"zeros": make([]float32, sampleRate),
		"empty": nil,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := extract(samples)

			assert.True(t, math.IsInf(got.Core.RmsDbfs, -1))
			assert.True(t, math.IsInf(got.Core.PeakDbfs, -1))
			assert.True(t, math.IsInf(got.Advanced.LufsIntegrated, -1))
			assert.Zero(t, got.Core.CrestFactorDb)
			assert.Zero(t, got.Core.DynamicRangeDb)
			assert.Equal(t, types.SpectralMetrics{}, got.Spectral)
			assert.Zero(t, got.Advanced.TransientDensity)
			assert.Zero(t, got.Advanced.AttackTimeMs)
			assert.Zero(t, got.Advanced.SustainDecayRateDbPerS)
		})
	}
}

func TestBandRatios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		freq     float64
		dominant func(types.SpectralMetrics) float64
	}{
		{"bass", 100, func(s types.SpectralMetrics) float64 { return s.BassRatio }},
		{"mid", 1000, func(s types.SpectralMetrics) float64 { return s.MidRatio }},
		{"treble", 5000, func(s types.SpectralMetrics) float64 { return s.TrebleRatio }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := extract(sine(tt.freq, 0.5, 1)).Spectral

			assert.InDelta(t, 1.0, got.BassRatio+got.MidRatio+got.TrebleRatio, 0.01)
			assert.Greater(t, tt.dominant(got), 0.99)
			assert.InDelta(t, tt.freq, got.SpectralCentroidHz, 1)
		})
	}
}

func TestBandRatiosNoise(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))

	// Prime length forces the padded transform.
	samples := make([]float32, 44111)
	for i := range samples {
		samples[i] = float32(rng.Float64()*2 - 1)
	}

	got := extract(samples).Spectral

	assert.InDelta(t, 1.0, got.BassRatio+got.MidRatio+got.TrebleRatio, 0.01)
	assert.Greater(t, got.TrebleRatio, got.MidRatio)
	assert.Greater(t, got.MidRatio, got.BassRatio)
	assert.InDelta(t, sampleRate/4, got.SpectralCentroidHz, 500)
}

func TestDynamicRange(t *testing.T) {
	t.Parallel()

	loud := sine(440, 1.0, 0.5)
	quiet := sine(440, 0.1, 0.5)

	got := extract(append(loud, quiet...))

	assert.InDelta(t, 20.0, got.Core.DynamicRangeDb, 0.5)

	// A single window cannot have a range.
	assert.Zero(t, extract(sine(440, 1, 0.05)).Core.DynamicRangeDb)
}

func TestDynamicRangePercentiles(t *testing.T) {
	t.Parallel()

	// Twenty 50ms windows at levels 1 to 20: p95 = 19.05 and p5 = 1.95.
	const rate = 1000

	samples := make([]float32, 0, 20*50)
	for level := 1; level <= 20; level++ {
		for range 50 {
			samples = append(samples, float32(level))
		}
	}

	got := metrics.Extract(types.NewAudioBuffer(samples, rate), metrics.DefaultOptions())
	assert.InDelta(t, 19.797, got.Core.DynamicRangeDb, 0.001)
}

func TestTransientDensity(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 2*sampleRate)
	burst := sine(1000, 0.9, 0.02)

	for k := range 8 {
		copy(samples[int((0.1+0.25*float64(k))*sampleRate):], burst)
	}

	got := extract(samples)

	assert.InDelta(t, 4.0, got.Advanced.TransientDensity, 0.01)
}

func TestAttackTime(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 4410+22050)
	for i := range samples {
		samples[i] = min(float32(i)/4410, 1)
	}

	got := extract(samples)

	// Noise floor is the mean of the first 264 samples, so the onset is sample 395 and 90% is sample 3970.
	assert.InDelta(t, float64(3970-395)/sampleRate*1000, got.Advanced.AttackTimeMs, 0.1)
}

func TestSustainDecay(t *testing.T) {
	t.Parallel()

	samples := make([]float32, 2*sampleRate)
	for i := range samples {
		samples[i] = float32(math.Pow(10, -float64(i)/sampleRate)) // -20 dB/s
	}

	got := extract(samples)

	assert.InDelta(t, -20.0, got.Advanced.SustainDecayRateDbPerS, 0.5)

	// Shorter than one window.
	assert.Zero(t, extract(samples[:100]).Advanced.SustainDecayRateDbPerS)
}

func TestLoudness(t *testing.T) {
	t.Parallel()

	samples := sine(997, 1.0, 3)

	approx := extract(samples).Advanced.LufsIntegrated
	assert.InDelta(t, -3.01, approx, 0.2)

	opts := metrics.DefaultOptions()
	opts.Loudness = metrics.LoudnessGated

	gated := metrics.Extract(buffer(samples), opts).Advanced.LufsIntegrated
	assert.InDelta(t, approx, gated, 0.1)

	// Too short for a gating block: falls back to the approximation.
	short := sine(997, 1.0, 0.2)
	assert.InDelta(t,
		extract(short).Advanced.LufsIntegrated,
		metrics.Extract(buffer(short), opts).Advanced.LufsIntegrated,
		1e-9,
	)

	mode, ok := metrics.ParseLoudnessMode("gated")
	require.True(t, ok)
	assert.Equal(t, metrics.LoudnessGated, mode)

	_, ok = metrics.ParseLoudnessMode("r128")
	assert.False(t, ok)
}

func TestLoudnessLowSampleRates(t *testing.T) {
	t.Parallel()

	gated := metrics.DefaultOptions()
	gated.Loudness = metrics.LoudnessGated

	for _, rate := range []uint32{8000, 4000, 3000, 2000, 1000, 100} {
		samples := make([]float32, rate)
		for i := range samples {
			samples[i] = float32(0.5 * math.Sin(2*math.Pi*10*float64(i)/float64(rate)))
		}

		buf := types.NewAudioBuffer(samples, rate)

		for _, opts := range []metrics.Options{metrics.DefaultOptions(), gated} {
			lufs := metrics.Extract(buf, opts).Advanced.LufsIntegrated
			assert.False(t, math.IsNaN(lufs), rate)
			assert.False(t, math.IsInf(lufs, 0), rate)
		}
	}
}

func TestInputNotMutated(t *testing.T) {
	t.Parallel()

	samples := sine(440, 0.7, 0.5)
	original := append([]float32(nil), samples...)

	_ = extract(samples)

	assert.Equal(t, original, samples)
}

func TestExtractFrames(t *testing.T) {
	t.Parallel()

	left := sine(440, 1.0, 0.5)
	frames := &types.Frames{Samples: make([]float32, 2*len(left)), Channels: 2, SampleRate: sampleRate}

	for i, s := range left {
		frames.Samples[2*i] = s
		frames.Samples[2*i+1] = 0
	}

	assert.Equal(t, extract(left), metrics.ExtractFrames(frames, metrics.DefaultOptions()))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	a := extract(sine(440, 1.0, 1))
	b := extract(sine(440, 0.5, 1))

	diff := metrics.Compare(a, b)

	assert.Len(t, diff, 12)
	assert.InDelta(t, 6.02, diff["rms_dbfs"], 0.05)
	assert.InDelta(t, 6.02, diff["peak_dbfs"], 0.05)
	assert.InDelta(t, 0.0, diff["crest_factor_db"], 0.01)
	assert.InDelta(t, 0.0, diff["spectral_centroid_hz"], 0.5)

	for name, delta := range metrics.Compare(a, a) {
		assert.Zero(t, delta, name)
	}
}
