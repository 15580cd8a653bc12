// Package dropout finds discontinuities in a DI recording, the marks of interface buffer underruns and bad edits.
//
//nolint:staticcheck // too dumb
package dropout

import (
	"math"

	"github.com/farcloser/shootout/internal/audit/shared"
	"github.com/farcloser/shootout/internal/types"
)

type Options struct {
	DeltaThreshold  float64 // normalized; default 0.5 (half of full scale)
	DeltaNearZero   float64 // at least one side of a delta must be below this; default 0.01
	ZeroRunMinMs    float64 // minimum zero run to report; default 1.0ms
	ZeroRunQuietDb  float64 // RMS below this before a zero run = not a dropout; default -50
	DCWindowMs      float64 // block for DC average and level window; default 50ms
	DCJumpThreshold float64 // DC change threshold; default 0.1
}

func DefaultOptions() Options {
	return Options{
		DeltaThreshold:  0.5,
		DeltaNearZero:   0.01,
		ZeroRunMinMs:    1.0,
		ZeroRunQuietDb:  -50.0,
		DCWindowMs:      50.0,
		DCJumpThreshold: 0.1,
	}
}

func withDefaults(opts Options) Options {
	defaults := DefaultOptions()

	if opts.DeltaThreshold == 0 {
		opts.DeltaThreshold = defaults.DeltaThreshold
	}

	if opts.DeltaNearZero == 0 {
		opts.DeltaNearZero = defaults.DeltaNearZero
	}

	if opts.ZeroRunMinMs == 0 {
		opts.ZeroRunMinMs = defaults.ZeroRunMinMs
	}

	if opts.ZeroRunQuietDb == 0 {
		opts.ZeroRunQuietDb = defaults.ZeroRunQuietDb
	}

	if opts.DCWindowMs == 0 {
		opts.DCWindowMs = defaults.DCWindowMs
	}

	if opts.DCJumpThreshold == 0 {
		opts.DCJumpThreshold = defaults.DCJumpThreshold
	}

	return opts
}

// scanner holds the running state of one pass over the buffer.
type scanner struct {
	opts           Options
	sampleRate     float64
	windowSize     int
	minZeroSamples int
	result         *types.DropoutResult

	frame      uint64
	prevSample float64

	zeroStart    int64
	zeroStartRms float64

	// Ring buffer of squares over the window, for the level ahead of a zero run.
	sqBuf  []float64
	pos    int
	filled int
	sqSum  float64

	// Sum over the current block. DC is compared between consecutive blocks.
	dcSum float64

	prevDC        float64
	dcInitialized bool
}

func newScanner(opts Options, sampleRate float64) *scanner {
	windowSize := max(int(sampleRate*opts.DCWindowMs/1000), 1)

	return &scanner{
		opts:           opts,
		sampleRate:     sampleRate,
		windowSize:     windowSize,
		minZeroSamples: max(int(sampleRate*opts.ZeroRunMinMs/1000), 1),
		result:         &types.DropoutResult{},
		zeroStart:      -1,
		sqBuf:          make([]float64, windowSize),
	}
}

func (s *scanner) process(sample float64) {
	if s.frame > 0 {
		delta := math.Abs(sample - s.prevSample)
		if delta > s.opts.DeltaThreshold && isDeltaDropout(s.prevSample, sample, s.opts.DeltaNearZero) {
			s.emit(types.Event{Frame: s.frame, Type: types.EventDelta, Severity: delta})
			s.result.DeltaCount++
		}

		if sample == 0 {
			if s.zeroStart < 0 {
				s.zeroStart = int64(s.frame) //nolint:gosec // frame count fits in int64
				s.zeroStartRms = s.rmsDb()
			}
		} else {
			s.closeZeroRun()
		}
	}

	sq := sample * sample
	s.sqSum += sq - s.sqBuf[s.pos]
	s.sqBuf[s.pos] = sq
	s.pos = (s.pos + 1) % s.windowSize
	s.filled = min(s.filled+1, s.windowSize)

	s.dcSum += sample
	if s.pos == 0 {
		s.closeDCBlock()
	}

	s.prevSample = sample
	s.frame++
}

func (s *scanner) closeDCBlock() {
	currentDC := s.dcSum / float64(s.windowSize)
	s.dcSum = 0

	if s.dcInitialized {
		if jump := math.Abs(currentDC - s.prevDC); jump > s.opts.DCJumpThreshold {
			s.emit(types.Event{Frame: s.frame, Type: types.EventDCJump, Severity: jump})
			s.result.DCJumpCount++
		}
	}

	s.prevDC = currentDC
	s.dcInitialized = true
}

// closeZeroRun reports the open zero run if it is long enough and followed audible material.
func (s *scanner) closeZeroRun() {
	if s.zeroStart < 0 {
		return
	}

	runLength := int64(s.frame) - s.zeroStart //nolint:gosec // frame count fits in int64
	if runLength >= int64(s.minZeroSamples) && s.zeroStartRms >= s.opts.ZeroRunQuietDb {
		s.emit(types.Event{
			Frame:      uint64(s.zeroStart), //nolint:gosec // non-negative by construction
			Type:       types.EventZeroRun,
			Severity:   float64(runLength) / s.sampleRate,
			DurationMs: float64(runLength) / s.sampleRate * 1000,
		})
		s.result.ZeroRunCount++
	}

	s.zeroStart = -1
}

func (s *scanner) emit(event types.Event) {
	event.TimeSec = float64(event.Frame) / s.sampleRate
	s.result.Events = append(s.result.Events, event)
}

func (s *scanner) rmsDb() float64 {
	if s.filled == 0 {
		return shared.FloorDb
	}

	return shared.LevelDb(math.Sqrt(max(s.sqSum, 0) / float64(s.filled)))
}

// finalize leaves an open zero run alone: one that reaches the end is trailing silence.
func (s *scanner) finalize() *types.DropoutResult {
	var worst float64

	for _, e := range s.result.Events {
		if e.Type != types.EventZeroRun {
			worst = max(worst, e.Severity)
		}
	}

	s.result.WorstDb = shared.LevelDb(worst)
	s.result.Frames = s.frame

	return s.result
}

// isDeltaDropout reports whether a sample-to-sample jump looks like a dropout rather than a pick attack:
// a dropout goes between audible content and near silence, so one of the two samples is near zero.
func isDeltaDropout(prev, cur, nearZero float64) bool {
	return math.Abs(prev) < nearZero || math.Abs(cur) < nearZero
}

// Detect scans buf once.
func Detect(buf *types.AudioBuffer, opts Options) *types.DropoutResult {
	if buf.SampleRate == 0 || len(buf.Samples) == 0 {
		return &types.DropoutResult{WorstDb: shared.FloorDb}
	}

	scan := newScanner(withDefaults(opts), float64(buf.SampleRate))

	for _, s := range buf.Samples {
		scan.process(float64(s))
	}

	return scan.finalize()
}

// EventCount is the number of discontinuities of every kind.
func EventCount(result *types.DropoutResult) int {
	return result.DeltaCount + result.ZeroRunCount + result.DCJumpCount
}
