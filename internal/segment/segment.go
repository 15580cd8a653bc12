// Package segment places processed segments on the concatenated output timeline.
package segment

import (
	"fmt"

	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/types"
)

var (
	ErrSampleRate = fmt.Errorf("%w: sample rate must be positive", failure.ErrValidation)
	ErrDuration   = fmt.Errorf("%w: segment duration must not be negative", failure.ErrValidation)
	ErrSource     = fmt.Errorf("%w: source start sample must not be negative", failure.ErrValidation)
)

// Tracker hands out back-to-back timestamps: each segment starts where the previous one ended.
// It is not safe for concurrent use. Segments processed in parallel must be added in order afterwards.
type Tracker struct {
	sampleRate uint32
	segments   []types.SegmentTimestamps
	offsetMs   int64
}

// NewTracker returns an empty tracker for the given rate.
func NewTracker(sampleRate uint32) (*Tracker, error) {
	if sampleRate == 0 {
		return nil, ErrSampleRate
	}

	return &Tracker{sampleRate: sampleRate}, nil
}

// SampleRate returns the rate used to convert sample counts to milliseconds.
func (t *Tracker) SampleRate() uint32 {
	return t.sampleRate
}

// AddSamples appends a segment of durationSamples taken from sourceStart in its source.
// The millisecond duration is truncated.
func (t *Tracker) AddSamples(durationSamples, sourceStart int64) (types.SegmentTimestamps, error) {
	if durationSamples < 0 {
		return types.SegmentTimestamps{}, fmt.Errorf("%w: %d samples", ErrDuration, durationSamples)
	}

	if sourceStart < 0 {
		return types.SegmentTimestamps{}, fmt.Errorf("%w: %d", ErrSource, sourceStart)
	}

	durationMs := durationSamples * 1000 / int64(t.sampleRate)

	return t.add(durationMs, sourceStart, sourceStart+durationSamples), nil
}

// AddMillis appends a segment known only by its duration. The source span is derived from the rate.
func (t *Tracker) AddMillis(durationMs, sourceStart int64) (types.SegmentTimestamps, error) {
	if durationMs < 0 {
		return types.SegmentTimestamps{}, fmt.Errorf("%w: %d ms", ErrDuration, durationMs)
	}

	if sourceStart < 0 {
		return types.SegmentTimestamps{}, fmt.Errorf("%w: %d", ErrSource, sourceStart)
	}

	durationSamples := durationMs * int64(t.sampleRate) / 1000

	return t.add(durationMs, sourceStart, sourceStart+durationSamples), nil
}

func (t *Tracker) add(durationMs, sourceStart, sourceEnd int64) types.SegmentTimestamps {
	ts := types.SegmentTimestamps{
		Position:          len(t.segments),
		StartMs:           t.offsetMs,
		EndMs:             t.offsetMs + durationMs,
		DurationMs:        durationMs,
		SourceStartSample: sourceStart,
		SourceEndSample:   sourceEnd,
		SampleRate:        t.sampleRate,
	}

	t.segments = append(t.segments, ts)
	t.offsetMs = ts.EndMs

	return ts
}

// Segment returns the timestamps at position, if any.
func (t *Tracker) Segment(position int) (types.SegmentTimestamps, bool) {
	if position < 0 || position >= len(t.segments) {
		return types.SegmentTimestamps{}, false
	}

	return t.segments[position], true
}

// Segments returns a copy of every segment in position order.
func (t *Tracker) Segments() []types.SegmentTimestamps {
	return append([]types.SegmentTimestamps(nil), t.segments...)
}

// Count returns the number of segments.
func (t *Tracker) Count() int {
	return len(t.segments)
}

// TotalDurationMs is the end of the last segment, 0 when empty.
func (t *Tracker) TotalDurationMs() int64 {
	return t.offsetMs
}

// Compute lays out durationsMs back to back, as a one-shot tracker would.
func Compute(durationsMs []int64, sampleRate uint32) ([]types.SegmentTimestamps, error) {
	tracker, err := NewTracker(sampleRate)
	if err != nil {
		return nil, err
	}

	for _, d := range durationsMs {
		if _, err = tracker.AddMillis(d, 0); err != nil {
			return nil, err
		}
	}

	return tracker.Segments(), nil
}
