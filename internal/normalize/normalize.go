// Package normalize measures and adjusts buffer levels so chains can be compared at equal loudness.
//
// All levels are in dB relative to full scale. Measurements of silent or empty buffers return -Inf,
// and gain operations leave such buffers untouched.
package normalize

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/types"
)

const (
	DefaultInputTargetDb  = -18.0 // headroom before amp inference
	DefaultOutputTargetDb = -14.0
	DefaultPeakLimitDb    = -0.1
	DefaultPeakTargetDb   = -1.0
	DefaultHeadroomDb     = -1.0
)

// Method selects the level measure used to match two buffers.
type Method int

const (
	MethodRMS Method = iota
	MethodPeak
)

func (m Method) String() string {
	switch m {
	case MethodRMS:
		return "rms"
	case MethodPeak:
		return "peak"
	default:
		return "unknown"
	}
}

var ErrUnknownMethod = fmt.Errorf("%w: unknown normalization method", failure.ErrValidation)

// ParseMethod accepts "rms" or "peak".
func ParseMethod(name string) (Method, error) {
	switch name {
	case "rms":
		return MethodRMS, nil
	case "peak":
		return MethodPeak, nil
	default:
		return 0, fmt.Errorf("%w %q (valid: rms, peak)", ErrUnknownMethod, name)
	}
}

// RMSLinear returns sqrt(mean(x^2)), 0 for an empty slice.
func RMSLinear(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64

	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(samples)))
}

// PeakLinear returns max(|x|), 0 for an empty slice.
func PeakLinear(samples []float32) float64 {
	var peak float64

	for _, s := range samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}

	return peak
}

// RMSDb returns the RMS level in dBFS, -Inf for silence.
func RMSDb(samples []float32) float64 {
	return LinearToDb(RMSLinear(samples))
}

// PeakDb returns the sample peak in dBFS, -Inf for silence.
func PeakDb(samples []float32) float64 {
	return LinearToDb(PeakLinear(samples))
}

// DbToLinear converts a dB ratio to a linear amplitude ratio.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDb converts a linear amplitude ratio to dB, -Inf for non-positive values.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// RMS scales buf so its RMS reaches targetDb, then pulls the whole buffer down if the peak exceeds peakLimitDb.
// Silent input is returned as an unchanged copy.
func RMS(buf *types.AudioBuffer, targetDb, peakLimitDb float64) *types.AudioBuffer {
	current := RMSLinear(buf.Samples)
	if current == 0 {
		slog.Warn("normalize.RMS", "stage", "skip", "reason", "silent input")

		return buf.Clone()
	}

	currentDb := LinearToDb(current)
	gain := DbToLinear(targetDb - currentDb)

	slog.Debug("normalize.RMS", "current db", currentDb, "target db", targetDb, "gain db", targetDb-currentDb)

	limit := DbToLinear(peakLimitDb)

	peak := PeakLinear(buf.Samples) * gain
	if peak > limit {
		slog.Debug("normalize.RMS", "stage", "peak limit", "reduction db", LinearToDb(peak)-peakLimitDb)

		gain *= limit / peak
	}

	out := scale(buf, gain)
	clampTo(out.Samples, ceiling(peakLimitDb))

	return out
}

// ceiling is the largest float32 amplitude whose level does not exceed limitDb.
func ceiling(limitDb float64) float32 {
	top := float32(DbToLinear(limitDb))
	for top > 0 && LinearToDb(float64(top)) > limitDb {
		top = math.Nextafter32(top, 0)
	}

	return top
}

// clampTo pulls samples rounded past top back onto it.
func clampTo(samples []float32, top float32) {
	for i, s := range samples {
		switch {
		case s > top:
			samples[i] = top
		case s < -top:
			samples[i] = -top
		}
	}
}

// Peak scales buf so its sample peak reaches targetDb. Silent input is returned as an unchanged copy.
func Peak(buf *types.AudioBuffer, targetDb float64) *types.AudioBuffer {
	current := PeakLinear(buf.Samples)
	if current == 0 {
		slog.Warn("normalize.Peak", "stage", "skip", "reason", "silent input")

		return buf.Clone()
	}

	return scale(buf, DbToLinear(targetDb)/current)
}

// MatchLoudness brings buf to the level of reference under method.
// A silent reference carries no level to match, so buf is returned unchanged.
func MatchLoudness(buf, reference *types.AudioBuffer, method Method) (*types.AudioBuffer, error) {
	switch method {
	case MethodRMS:
		ref := RMSDb(reference.Samples)
		if math.IsInf(ref, -1) {
			return buf.Clone(), nil
		}

		return RMS(buf, ref, DefaultPeakLimitDb), nil
	case MethodPeak:
		ref := PeakDb(reference.Samples)
		if math.IsInf(ref, -1) {
			return buf.Clone(), nil
		}

		return Peak(buf, ref), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, method)
	}
}

// GainTo returns the gain in dB that would bring buf's RMS to targetDb, without touching the audio.
// It returns 0 for silence, where no gain reaches the target.
func GainTo(buf *types.AudioBuffer, targetDb float64) float64 {
	current := RMSDb(buf.Samples)
	if math.IsInf(current, -1) {
		return 0
	}

	return targetDb - current
}

// ApplyGainDb returns a copy of buf scaled by db.
func ApplyGainDb(buf *types.AudioBuffer, db float64) *types.AudioBuffer {
	return scale(buf, DbToLinear(db))
}

func scale(buf *types.AudioBuffer, gain float64) *types.AudioBuffer {
	out := make([]float32, len(buf.Samples))
	for i, s := range buf.Samples {
		out[i] = float32(float64(s) * gain)
	}

	return &types.AudioBuffer{Samples: out, SampleRate: buf.SampleRate}
}
