//nolint:staticcheck,tagliatelle // too dumb on Db vs. DB, json names are part of the report format
package types

import "slices"

// AudioBuffer is a mono float32 PCM buffer. Samples are nominally in [-1, 1] but are not clamped.
type AudioBuffer struct {
	Samples    []float32
	SampleRate uint32
}

// NewAudioBuffer wraps samples without copying them.
func NewAudioBuffer(samples []float32, sampleRate uint32) *AudioBuffer {
	return &AudioBuffer{Samples: samples, SampleRate: sampleRate}
}

// Len returns the number of samples.
func (b *AudioBuffer) Len() int {
	return len(b.Samples)
}

// DurationSeconds returns the buffer length in seconds, or 0 when the sample rate is unset.
func (b *AudioBuffer) DurationSeconds() float64 {
	if b.SampleRate == 0 {
		return 0
	}

	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Clone returns a deep copy.
func (b *AudioBuffer) Clone() *AudioBuffer {
	return &AudioBuffer{Samples: slices.Clone(b.Samples), SampleRate: b.SampleRate}
}

// Frames is an interleaved multi-channel buffer, as decoded from a file.
type Frames struct {
	Samples    []float32
	Channels   int
	SampleRate uint32
}

// Mono extracts the first channel. Processing and metrics only ever look at channel 0.
func (f *Frames) Mono() *AudioBuffer {
	if f.Channels <= 1 {
		return &AudioBuffer{Samples: slices.Clone(f.Samples), SampleRate: f.SampleRate}
	}

	out := make([]float32, len(f.Samples)/f.Channels)
	for i := range out {
		out[i] = f.Samples[i*f.Channels]
	}

	return &AudioBuffer{Samples: out, SampleRate: f.SampleRate}
}

// CoreMetrics are level measurements. RMS and peak are -Inf for silence.
type CoreMetrics struct {
	RmsDbfs        float64 `json:"rms_dbfs"`
	PeakDbfs       float64 `json:"peak_dbfs"`
	CrestFactorDb  float64 `json:"crest_factor_db"`
	DynamicRangeDb float64 `json:"dynamic_range_db"`
}

// SpectralMetrics describe the frequency balance. Ratios sum to 1 for non-silent input, and are all 0 otherwise.
type SpectralMetrics struct {
	SpectralCentroidHz float64 `json:"spectral_centroid_hz"`
	BassRatio          float64 `json:"bass_ratio"`
	MidRatio           float64 `json:"mid_ratio"`
	TrebleRatio        float64 `json:"treble_ratio"`
}

// AdvancedMetrics describe loudness and envelope behavior.
type AdvancedMetrics struct {
	LufsIntegrated         float64 `json:"lufs_integrated"`
	TransientDensity       float64 `json:"transient_density"` // transients per second
	AttackTimeMs           float64 `json:"attack_time_ms"`
	SustainDecayRateDbPerS float64 `json:"sustain_decay_rate_db_per_s"`
}

// AudioMetrics is the full snapshot for one processed segment.
type AudioMetrics struct {
	DurationSeconds float64         `json:"duration_seconds"`
	SampleRate      uint32          `json:"sample_rate"`
	Core            CoreMetrics     `json:"core"`
	Spectral        SpectralMetrics `json:"spectral"`
	Advanced        AdvancedMetrics `json:"advanced"`
}

// SegmentTimestamps locates one processed segment on the output timeline and in its source.
type SegmentTimestamps struct {
	Position          int    `json:"position"`
	StartMs           int64  `json:"start_ms"`
	EndMs             int64  `json:"end_ms"`
	DurationMs        int64  `json:"duration_ms"`
	SourceStartSample int64  `json:"source_start_sample"`
	SourceEndSample   int64  `json:"source_end_sample"`
	SampleRate        uint32 `json:"sample_rate"`
}

// Versions names every tool whose behavior affects the rendered audio.
type Versions struct {
	AmpRuntime   string `json:"amp_runtime"`
	MediaEncoder string `json:"media_encoder"`
	Engine       string `json:"engine"`
	HostRuntime  string `json:"host_runtime"`
}

// AudioSettings describe the processing format.
type AudioSettings struct {
	SampleRate uint32 `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
	Channels   int    `json:"channels"`
	Format     string `json:"format"`
}

// NormalizationSettings record the level targets applied around each chain.
type NormalizationSettings struct {
	InputTargetRmsDb  float64 `json:"input_target_rms_db"`
	OutputTargetRmsDb float64 `json:"output_target_rms_db"`
	Method            string  `json:"method"`
	HeadroomDb        float64 `json:"headroom_db"`
}

// FileHash is the SHA-256 of one input. SHA256 is nil when an optional input was not provided.
type FileHash struct {
	Role   string  `json:"role"`
	Path   string  `json:"path,omitempty"`
	SHA256 *string `json:"sha256"`
}

// ProcessingMetadata is the reproducibility record of a comparison job.
type ProcessingMetadata struct {
	Versions                  Versions              `json:"versions"`
	AudioSettings             AudioSettings         `json:"audio_settings"`
	NormalizationSettings     NormalizationSettings `json:"normalization_settings"`
	FileHashes                []FileHash            `json:"file_hashes"`
	ProcessedAt               string                `json:"processed_at"`
	ProcessingDurationSeconds *float64              `json:"processing_duration_s,omitempty"`
	TotalDurationMs           int64                 `json:"total_duration_ms"`
	SegmentCount              int                   `json:"segment_count"`
	PlatformInfo              string                `json:"platform_info"`
}

// ClippingDetection contains clipping run statistics for a buffer.
type ClippingDetection struct {
	Events         uint64
	ClippedSamples uint64
	LongestRun     uint64
	Samples        uint64
}

// DCOffsetResult contains the mean sample value of a buffer.
type DCOffsetResult struct {
	Offset   float64 // signed mean
	OffsetDb float64 // 20*log10(|mean|), -120 when zero
	Samples  uint64
}

// SilenceSegment is a contiguous run of windows below the silence threshold.
type SilenceSegment struct {
	StartSample uint64
	EndSample   uint64
	StartSec    float64
	EndSec      float64
	DurationSec float64
	RmsDb       float64
}

// SilenceResult contains silence detection results.
type SilenceResult struct {
	Segments      []SilenceSegment
	TotalSilence  float64 // seconds
	LeadingSec    float64
	TrailingSec   float64
	TotalDuration float64
	Frames        uint64
}

// TruncationDetection contains the level of the last window of a buffer.
type TruncationDetection struct {
	FinalRmsDb    float64
	FinalPeakDb   float64
	SamplesInTail uint64
}

// EventType classifies a discontinuity.
type EventType int

const (
	EventDelta   EventType = iota // sample-to-sample jump to or from silence
	EventZeroRun                  // digital silence inside audible material
	EventDCJump                   // step in the DC level
)

func (e EventType) String() string {
	switch e {
	case EventDelta:
		return "delta"
	case EventZeroRun:
		return "zero_run"
	case EventDCJump:
		return "dc_jump"
	}

	return "unknown"
}

// Event is a single discontinuity.
type Event struct {
	Frame      uint64
	TimeSec    float64
	Type       EventType
	Severity   float64 // jump size for delta and dc_jump, seconds for zero_run
	DurationMs float64 // zero_run only
}

// DropoutResult contains discontinuity detection results.
type DropoutResult struct {
	Events       []Event
	DeltaCount   int
	ZeroRunCount int
	DCJumpCount  int
	WorstDb      float64
	Frames       uint64
}

// DITrackInfo is the validation summary of a DI recording.
type DITrackInfo struct {
	Path       string
	Duration   float64
	SampleRate uint32
	Channels   int
	Samples    int
	Clipping   *ClippingDetection
	DCOffset   *DCOffsetResult
	Silence    *SilenceResult
	Truncation *TruncationDetection
	Dropouts   *DropoutResult
}
