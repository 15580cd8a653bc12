// Package metrics extracts the objective measurements used to compare processed tones.
//
// Extraction is a pure function of the samples and sample rate: the input buffer is never modified,
// degenerate input (silence, empty buffers) never errors, and every field is finite except the
// level and loudness fields, which are -Inf for silence.
package metrics

import (
	"log/slog"

	"github.com/farcloser/shootout/internal/types"
)

// LoudnessMode selects the integrated loudness estimator.
type LoudnessMode int

const (
	// LoudnessApproximate is -0.691 + 10*log10(mean square) of the K-weighted signal.
	LoudnessApproximate LoudnessMode = iota
	// LoudnessGated is the block-gated BS.1770 integrated loudness.
	LoudnessGated
)

func (m LoudnessMode) String() string {
	switch m {
	case LoudnessApproximate:
		return "approximate"
	case LoudnessGated:
		return "gated"
	default:
		return "unknown"
	}
}

// ParseLoudnessMode accepts "approximate" or "gated". Anything else is reported as not ok.
func ParseLoudnessMode(name string) (LoudnessMode, bool) {
	switch name {
	case "approximate", "":
		return LoudnessApproximate, true
	case "gated":
		return LoudnessGated, true
	default:
		return LoudnessApproximate, false
	}
}

// Options tune the extractor. The zero value is not usable, start from DefaultOptions.
type Options struct {
	DynamicRangeWindowMs float64 // window for per-window RMS (default 50)
	TransientThresholdDb float64 // envelope threshold above overall RMS (default 6)
	TransientMinGapMs    float64 // refractory interval between transients (default 50)
	TransientSmoothingMs float64 // boxcar length for the transient envelope (default 5)
	AttackThresholdRatio float64 // fraction of peak counted as "reached" (default 0.9)
	SustainWindowMs      float64 // decay measurement window, split in two halves (default 100)
	SustainSmoothingMs   float64 // boxcar length for the sustain envelope (default 10)
	Loudness             LoudnessMode
}

func DefaultOptions() Options {
	return Options{
		DynamicRangeWindowMs: 50,
		TransientThresholdDb: 6,
		TransientMinGapMs:    50,
		TransientSmoothingMs: 5,
		AttackThresholdRatio: 0.9,
		SustainWindowMs:      100,
		SustainSmoothingMs:   10,
		Loudness:             LoudnessApproximate,
	}
}

// Extract computes every metric group for a mono buffer.
func Extract(buf *types.AudioBuffer, opts Options) types.AudioMetrics {
	samples := toFloat64(buf.Samples)
	sampleRate := float64(buf.SampleRate)

	slog.Debug("metrics.Extract", "samples", len(samples), "sample rate", buf.SampleRate, "stage", "start")

	result := types.AudioMetrics{
		DurationSeconds: buf.DurationSeconds(),
		SampleRate:      buf.SampleRate,
		Core:            extractCore(samples, sampleRate, opts),
		Spectral:        extractSpectral(samples, sampleRate),
		Advanced:        extractAdvanced(samples, sampleRate, opts),
	}

	slog.Debug("metrics.Extract", "stage", "done")

	return result
}

// ExtractFrames extracts metrics from the first channel of a multi-channel buffer.
func ExtractFrames(frames *types.Frames, opts Options) types.AudioMetrics {
	return Extract(frames.Mono(), opts)
}

// Compare returns the per-field difference a - b, keyed by the metric's report name.
func Compare(a, b types.AudioMetrics) map[string]float64 {
	return map[string]float64{
		"rms_dbfs":                    a.Core.RmsDbfs - b.Core.RmsDbfs,
		"peak_dbfs":                   a.Core.PeakDbfs - b.Core.PeakDbfs,
		"crest_factor_db":             a.Core.CrestFactorDb - b.Core.CrestFactorDb,
		"dynamic_range_db":            a.Core.DynamicRangeDb - b.Core.DynamicRangeDb,
		"spectral_centroid_hz":        a.Spectral.SpectralCentroidHz - b.Spectral.SpectralCentroidHz,
		"bass_ratio":                  a.Spectral.BassRatio - b.Spectral.BassRatio,
		"mid_ratio":                   a.Spectral.MidRatio - b.Spectral.MidRatio,
		"treble_ratio":                a.Spectral.TrebleRatio - b.Spectral.TrebleRatio,
		"lufs_integrated":             a.Advanced.LufsIntegrated - b.Advanced.LufsIntegrated,
		"transient_density":           a.Advanced.TransientDensity - b.Advanced.TransientDensity,
		"attack_time_ms":              a.Advanced.AttackTimeMs - b.Advanced.AttackTimeMs,
		"sustain_decay_rate_db_per_s": a.Advanced.SustainDecayRateDbPerS - b.Advanced.SustainDecayRateDbPerS,
	}
}

func toFloat64(samples []float32) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s)
	}

	return out
}
