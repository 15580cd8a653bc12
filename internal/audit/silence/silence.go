//nolint:staticcheck // too dumb
package silence

import (
	"math"

	"github.com/farcloser/shootout/internal/audit/shared"
	"github.com/farcloser/shootout/internal/types"
)

type Options struct {
	ThresholdDb   float64 // below this = silence (default -60)
	MinDurationMs int     // minimum silence to report (default 1000)
	WindowMs      int     // RMS window size (default 50)
}

func DefaultOptions() Options {
	return Options{
		ThresholdDb:   -60.0,
		MinDurationMs: 1000,
		WindowMs:      50,
	}
}

// TrimOptions match a DI edit: 100 ms below -50 dB counts as dead air.
func TrimOptions() Options {
	return Options{
		ThresholdDb:   -50.0,
		MinDurationMs: 100,
		WindowMs:      10,
	}
}

func withDefaults(opts Options) Options {
	defaults := DefaultOptions()

	if opts.ThresholdDb == 0 {
		opts.ThresholdDb = defaults.ThresholdDb
	}

	if opts.MinDurationMs == 0 {
		opts.MinDurationMs = defaults.MinDurationMs
	}

	if opts.WindowMs == 0 {
		opts.WindowMs = defaults.WindowMs
	}

	return opts
}

// Detect reports the silent stretches of buf, window by window.
func Detect(buf *types.AudioBuffer, opts Options) *types.SilenceResult {
	opts = withDefaults(opts)

	total := uint64(len(buf.Samples))
	result := &types.SilenceResult{Frames: total}

	if buf.SampleRate == 0 || total == 0 {
		return result
	}

	rate := float64(buf.SampleRate)
	windowFrames := max(int(buf.SampleRate)*opts.WindowMs/1000, 1)
	minSilenceFrames := uint64(buf.SampleRate) * uint64(opts.MinDurationMs) / 1000 //nolint:gosec // positive by construction
	threshold := math.Pow(10, opts.ThresholdDb/20)

	var (
		inSilence    bool
		silenceStart uint64
		silenceSumSq float64
	)

	closeSegment := func(end uint64) {
		frames := end - silenceStart
		if frames >= minSilenceFrames && frames > 0 {
			result.Segments = append(result.Segments, types.SilenceSegment{
				StartSample: silenceStart,
				EndSample:   end,
				StartSec:    float64(silenceStart) / rate,
				EndSec:      float64(end) / rate,
				DurationSec: float64(frames) / rate,
				RmsDb:       shared.LevelDb(math.Sqrt(silenceSumSq / float64(frames))),
			})
		}

		inSilence = false
	}

	for start := 0; start < len(buf.Samples); start += windowFrames {
		window := buf.Samples[start:min(start+windowFrames, len(buf.Samples))]

		var sumSq float64
		for _, s := range window {
			sumSq += float64(s) * float64(s)
		}

		silent := math.Sqrt(sumSq/float64(len(window))) < threshold

		switch {
		case silent && !inSilence:
			inSilence = true
			silenceStart = uint64(start) //nolint:gosec // non-negative loop index
			silenceSumSq = sumSq
		case silent && inSilence:
			silenceSumSq += sumSq
		case !silent && inSilence:
			closeSegment(uint64(start)) //nolint:gosec // non-negative loop index
		default:
		}
	}

	if inSilence {
		closeSegment(total)
	}

	for _, seg := range result.Segments {
		result.TotalSilence += seg.DurationSec
	}

	result.TotalDuration = float64(total) / rate

	if len(result.Segments) > 0 {
		if first := result.Segments[0]; first.StartSample == 0 {
			result.LeadingSec = first.DurationSec
		}

		if last := result.Segments[len(result.Segments)-1]; last.EndSample == total {
			result.TrailingSec = last.DurationSec
		}
	}

	return result
}

// Trim cuts leading and trailing silence. It returns the trimmed copy and the index of its first
// sample in buf. A buffer that is silent throughout is returned whole.
func Trim(buf *types.AudioBuffer, opts Options) (*types.AudioBuffer, int64) {
	detected := Detect(buf, opts)

	start := uint64(0)
	end := detected.Frames

	if len(detected.Segments) == 1 && detected.Segments[0].StartSample == 0 && detected.Segments[0].EndSample == end {
		return buf.Clone(), 0
	}

	if len(detected.Segments) > 0 {
		if first := detected.Segments[0]; first.StartSample == 0 {
			start = first.EndSample
		}

		if last := detected.Segments[len(detected.Segments)-1]; last.EndSample == end {
			end = last.StartSample
		}
	}

	trimmed := types.NewAudioBuffer(append([]float32(nil), buf.Samples[start:end]...), buf.SampleRate)

	return trimmed, int64(start) //nolint:gosec // bounded by the buffer length
}
