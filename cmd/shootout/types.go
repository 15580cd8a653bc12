//nolint:tagliatelle
package main

import (
	"math"

	"github.com/farcloser/shootout/internal/types"
)

// Record is a single line in the JSONL report file. Segment lines come first, in output order,
// followed by one line carrying the processing metadata.
type Record struct {
	Comparison string         `json:"comparison,omitempty"`
	Segment    map[string]any `json:"segment,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	Comparison string          `json:"comparison,omitempty"`
	Segment    *digestSegment  `json:"segment,omitempty"`
	Metadata   *digestMetadata `json:"metadata,omitempty"`
}

type digestSegment struct {
	Position  int           `json:"position"`
	DITrack   string        `json:"di_track"`
	Chain     string        `json:"chain"`
	Effects   string        `json:"effects"`
	Metrics   digestMetrics `json:"metrics"`
	ElapsedMs float64       `json:"elapsed_ms"`
}

type digestMetadata struct {
	TotalDurationMs int64   `json:"total_duration_ms"`
	SegmentCount    int     `json:"segment_count"`
	ProcessedAt     string  `json:"processed_at"`
	ProcessingS     float64 `json:"processing_duration_s"`
	Versions        struct {
		AmpRuntime   string `json:"amp_runtime"`
		MediaEncoder string `json:"media_encoder"`
	} `json:"versions"`
}

// digestMetrics mirrors output.MetricsToMap. Levels are null for silent segments.
type digestMetrics struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      uint32  `json:"sample_rate"`
	Core            struct {
		RmsDbfs        *float64 `json:"rms_dbfs"`
		PeakDbfs       *float64 `json:"peak_dbfs"`
		CrestFactorDb  *float64 `json:"crest_factor_db"`
		DynamicRangeDb *float64 `json:"dynamic_range_db"`
	} `json:"core"`
	Spectral types.SpectralMetrics `json:"spectral"`
	Advanced struct {
		LufsIntegrated         *float64 `json:"lufs_integrated"`
		TransientDensity       float64  `json:"transient_density"`
		AttackTimeMs           float64  `json:"attack_time_ms"`
		SustainDecayRateDbPerS *float64 `json:"sustain_decay_rate_db_per_s"`
	} `json:"advanced"`
}

func orNegInf(v *float64) float64 {
	if v == nil {
		return math.Inf(-1)
	}

	return *v
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}

func (m digestMetrics) audioMetrics() types.AudioMetrics {
	return types.AudioMetrics{
		DurationSeconds: m.DurationSeconds,
		SampleRate:      m.SampleRate,
		Core: types.CoreMetrics{
			RmsDbfs:        orNegInf(m.Core.RmsDbfs),
			PeakDbfs:       orNegInf(m.Core.PeakDbfs),
			CrestFactorDb:  orZero(m.Core.CrestFactorDb),
			DynamicRangeDb: orZero(m.Core.DynamicRangeDb),
		},
		Spectral: m.Spectral,
		Advanced: types.AdvancedMetrics{
			LufsIntegrated:         orNegInf(m.Advanced.LufsIntegrated),
			TransientDensity:       m.Advanced.TransientDensity,
			AttackTimeMs:           m.Advanced.AttackTimeMs,
			SustainDecayRateDbPerS: orZero(m.Advanced.SustainDecayRateDbPerS),
		},
	}
}
