// Package output renders shootout results as the map structures used for console, JSON and JSONL output.
// Non-finite levels (the -Inf of a silent buffer) are rendered as null so every map stays JSON-encodable.
package output

import (
	"math"

	"github.com/farcloser/shootout"
	"github.com/farcloser/shootout/internal/preset"
	"github.com/farcloser/shootout/internal/types"
)

// Float returns v, or nil when v is not finite.
func Float(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}

	return v
}

// MetricsToMap converts a metrics snapshot to a map.
func MetricsToMap(m types.AudioMetrics) map[string]any {
	return map[string]any{
		"duration_seconds": m.DurationSeconds,
		"sample_rate":      m.SampleRate,
		"core": map[string]any{
			"rms_dbfs":         Float(m.Core.RmsDbfs),
			"peak_dbfs":        Float(m.Core.PeakDbfs),
			"crest_factor_db":  Float(m.Core.CrestFactorDb),
			"dynamic_range_db": Float(m.Core.DynamicRangeDb),
		},
		"spectral": map[string]any{
			"spectral_centroid_hz": m.Spectral.SpectralCentroidHz,
			"bass_ratio":           m.Spectral.BassRatio,
			"mid_ratio":            m.Spectral.MidRatio,
			"treble_ratio":         m.Spectral.TrebleRatio,
		},
		"advanced": map[string]any{
			"lufs_integrated":             Float(m.Advanced.LufsIntegrated),
			"transient_density":           m.Advanced.TransientDensity,
			"attack_time_ms":              m.Advanced.AttackTimeMs,
			"sustain_decay_rate_db_per_s": Float(m.Advanced.SustainDecayRateDbPerS),
		},
	}
}

// TimestampsToMap converts a segment's timeline placement to a map.
func TimestampsToMap(ts types.SegmentTimestamps) map[string]any {
	return map[string]any{
		"position":            ts.Position,
		"start_ms":            ts.StartMs,
		"end_ms":              ts.EndMs,
		"duration_ms":         ts.DurationMs,
		"source_start_sample": ts.SourceStartSample,
		"source_end_sample":   ts.SourceEndSample,
		"sample_rate":         ts.SampleRate,
	}
}

// SegmentToMap is the canonical record of one rendered segment, as written to JSONL reports.
func SegmentToMap(seg shootout.SegmentResult) map[string]any {
	meta := map[string]any{
		"position":   seg.Position,
		"di_track":   seg.DITrack,
		"chain":      seg.Chain,
		"effects":    seg.Effects,
		"timestamps": TimestampsToMap(seg.Timestamps),
		"metrics":    MetricsToMap(seg.Metrics),
		"elapsed_ms": float64(seg.Elapsed.Microseconds()) / 1000.0,
	}

	if seg.OutputPath != "" {
		meta["output_path"] = seg.OutputPath
	}

	return meta
}

// MetadataToMap converts the processing record to a map.
func MetadataToMap(meta types.ProcessingMetadata) map[string]any {
	hashes := make([]any, 0, len(meta.FileHashes))
	for _, hash := range meta.FileHashes {
		var sum any
		if hash.SHA256 != nil {
			sum = *hash.SHA256
		}

		hashes = append(hashes, map[string]any{
			"role":   hash.Role,
			"path":   hash.Path,
			"sha256": sum,
		})
	}

	result := map[string]any{
		"versions": map[string]any{
			"amp_runtime":   meta.Versions.AmpRuntime,
			"media_encoder": meta.Versions.MediaEncoder,
			"engine":        meta.Versions.Engine,
			"host_runtime":  meta.Versions.HostRuntime,
		},
		"audio_settings": map[string]any{
			"sample_rate": meta.AudioSettings.SampleRate,
			"bit_depth":   meta.AudioSettings.BitDepth,
			"channels":    meta.AudioSettings.Channels,
			"format":      meta.AudioSettings.Format,
		},
		"normalization_settings": map[string]any{
			"input_target_rms_db":  meta.NormalizationSettings.InputTargetRmsDb,
			"output_target_rms_db": meta.NormalizationSettings.OutputTargetRmsDb,
			"method":               meta.NormalizationSettings.Method,
			"headroom_db":          meta.NormalizationSettings.HeadroomDb,
		},
		"file_hashes":       hashes,
		"processed_at":      meta.ProcessedAt,
		"total_duration_ms": meta.TotalDurationMs,
		"segment_count":     meta.SegmentCount,
		"platform_info":     meta.PlatformInfo,
	}

	if meta.ProcessingDurationSeconds != nil {
		result["processing_duration_s"] = *meta.ProcessingDurationSeconds
	}

	return result
}

// ReportToMap converts a DI validation report to a map.
func ReportToMap(report *shootout.DIReport) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":    report.IssueCount,
			"worst_severity": report.WorstSeverity.String(),
		},
		"track": map[string]any{
			"duration_seconds": report.Duration,
			"sample_rate":      report.SampleRate,
			"channels":         report.Channels,
			"samples":          report.Samples,
		},
	}

	issues := make([]any, 0, len(report.Issues))
	for _, issue := range report.Issues {
		issues = append(issues, map[string]any{
			"check":    issue.Check.String(),
			"detected": issue.Detected,
			"severity": issue.Severity.String(),
			"summary":  issue.Summary,
		})
	}

	meta["issues"] = issues

	if r := report.Clipping; r != nil {
		meta["clipping"] = ClippingToMap(r)
	}

	if r := report.DCOffset; r != nil {
		meta["dc_offset"] = map[string]any{
			"offset":    r.Offset,
			"offset_db": r.OffsetDb,
			"samples":   r.Samples,
		}
	}

	if r := report.Silence; r != nil {
		meta["silence"] = SilenceToMap(r)
	}

	if r := report.Truncation; r != nil {
		meta["truncation"] = map[string]any{
			"final_rms_db":    r.FinalRmsDb,
			"final_peak_db":   r.FinalPeakDb,
			"samples_in_tail": r.SamplesInTail,
		}
	}

	if r := report.Dropouts; r != nil {
		meta["dropouts"] = DropoutsToMap(r)
	}

	return meta
}

func DropoutsToMap(result *types.DropoutResult) map[string]any {
	events := make([]any, 0, len(result.Events))
	for _, e := range result.Events {
		event := map[string]any{
			"time_sec": e.TimeSec,
			"type":     e.Type.String(),
			"severity": e.Severity,
		}

		if e.Type == types.EventZeroRun {
			event["duration_ms"] = e.DurationMs
		}

		events = append(events, event)
	}

	return map[string]any{
		"delta_count":    result.DeltaCount,
		"zero_run_count": result.ZeroRunCount,
		"dc_jump_count":  result.DCJumpCount,
		"worst_db":       result.WorstDb,
		"frames":         result.Frames,
		"events":         events,
	}
}

func ClippingToMap(result *types.ClippingDetection) map[string]any {
	return map[string]any{
		"events":          result.Events,
		"clipped_samples": result.ClippedSamples,
		"longest_run":     result.LongestRun,
		"samples":         result.Samples,
	}
}

func SilenceToMap(result *types.SilenceResult) map[string]any {
	segments := make([]any, 0, len(result.Segments))
	for _, seg := range result.Segments {
		segments = append(segments, map[string]any{
			"start_sec":    seg.StartSec,
			"end_sec":      seg.EndSec,
			"duration_sec": seg.DurationSec,
			"rms_db":       seg.RmsDb,
		})
	}

	return map[string]any{
		"total_duration": result.TotalDuration,
		"leading_sec":    result.LeadingSec,
		"trailing_sec":   result.TrailingSec,
		"total_silence":  result.TotalSilence,
		"frames":         result.Frames,
		"segments":       segments,
	}
}

// PresetToMap lists the decoded content of a plugin preset.
func PresetToMap(p *preset.Preset) map[string]any {
	return map[string]any{
		"class_id":   p.ClassID,
		"marker":     p.Marker,
		"version":    p.Version,
		"model_path": p.ModelPath,
		"ir_path":    p.IRPath,
		"parameters": p.Parameters,
	}
}
