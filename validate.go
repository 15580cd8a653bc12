package shootout

import (
	"context"
	"fmt"

	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/audit/clipping"
	"github.com/farcloser/shootout/internal/audit/dcoffset"
	"github.com/farcloser/shootout/internal/audit/dropout"
	"github.com/farcloser/shootout/internal/audit/silence"
	"github.com/farcloser/shootout/internal/audit/truncation"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/types"
)

var ErrEmptyTrack = fmt.Errorf("%w: DI track has no samples", failure.ErrValidation)

// Check is a DI track diagnostic.
type Check int

const (
	CheckClipping Check = 1 << iota
	CheckDCOffset
	CheckSilencePadding
	CheckTruncation
	CheckDropouts

	ChecksAll = CheckClipping | CheckDCOffset | CheckSilencePadding | CheckTruncation | CheckDropouts
)

func (c Check) String() string {
	switch c {
	case CheckClipping:
		return "clipping"
	case CheckDCOffset:
		return "dc-offset"
	case CheckSilencePadding:
		return "silence-padding"
	case CheckTruncation:
		return "truncation"
	case CheckDropouts:
		return "dropouts"
	case ChecksAll:
		return "all"
	}

	return "unknown"
}

// Severity indicates how much a problem will color the comparison.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Bands are severity thresholds, ascending: higher values are worse.
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value, and false below the Mild threshold.
func (b Bands) Match(value float64) (Severity, bool) {
	switch {
	case value >= b.Severe:
		return SeveritySevere, true
	case value >= b.Moderate:
		return SeverityModerate, true
	case value >= b.Mild:
		return SeverityMild, true
	default:
		return SeverityNone, false
	}
}

// Issue is the outcome of one check.
type Issue struct {
	Check    Check    `json:"check"`
	Detected bool     `json:"detected"`
	Severity Severity `json:"severity"`
	Summary  string   `json:"summary"`
}

type ValidateOptions struct {
	Checks Check

	Clipping       Bands // clipping events
	DCOffset       Bands // offset in dBFS
	SilencePadding Bands // leading plus trailing seconds
	Truncation     Bands // RMS of the last 50ms in dBFS
	Dropouts       Bands // discontinuities

	Silence silence.Options
	Dropout dropout.Options
}

func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		Checks:         ChecksAll,
		Clipping:       Bands{Mild: 1, Moderate: 10, Severe: 100},
		DCOffset:       Bands{Mild: -40, Moderate: -26, Severe: -13},
		SilencePadding: Bands{Mild: 2, Moderate: 5, Severe: 10},
		Truncation:     Bands{Mild: -40, Moderate: -30, Severe: -20},
		Dropouts:       Bands{Mild: 1, Moderate: 5, Severe: 20},
		Silence:        silence.DefaultOptions(),
		Dropout:        dropout.DefaultOptions(),
	}
}

// DIReport is the validation outcome of a DI track.
type DIReport struct {
	types.DITrackInfo

	Issues        []Issue
	IssueCount    int
	WorstSeverity Severity
}

// ValidateDITrack loads a DI recording and runs the requested diagnostics on its first channel.
// Only unreadable or empty files fail. Diagnostics are reported, never raised.
func ValidateDITrack(ctx context.Context, path string, opts ValidateOptions) (*DIReport, error) {
	if opts.Checks == 0 {
		opts = DefaultValidateOptions()
	}

	buf, info, err := audio.LoadMono(ctx, path)
	if err != nil {
		return nil, err
	}

	if buf.Len() == 0 || buf.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTrack, path)
	}

	report := &DIReport{
		DITrackInfo: types.DITrackInfo{
			Path:       path,
			Duration:   buf.DurationSeconds(),
			SampleRate: buf.SampleRate,
			Channels:   info.Channels,
			Samples:    buf.Len(),
		},
	}

	if opts.Checks&CheckClipping != 0 {
		report.Clipping = clipping.Detect(buf, clipping.DefaultOptions())

		severity, detected := opts.Clipping.Match(float64(report.Clipping.Events))
		summary := "No clipping detected"

		if detected {
			summary = fmt.Sprintf("%d clipping events, longest run %d samples",
				report.Clipping.Events, report.Clipping.LongestRun)
		}

		report.add(Issue{Check: CheckClipping, Detected: detected, Severity: severity, Summary: summary})
	}

	if opts.Checks&CheckDCOffset != 0 {
		report.DCOffset = dcoffset.Detect(buf)

		severity, detected := opts.DCOffset.Match(report.DCOffset.OffsetDb)
		summary := "No DC offset"

		if detected {
			summary = fmt.Sprintf("DC offset %.4f (%.1f dBFS)", report.DCOffset.Offset, report.DCOffset.OffsetDb)
		}

		report.add(Issue{Check: CheckDCOffset, Detected: detected, Severity: severity, Summary: summary})
	}

	if opts.Checks&CheckSilencePadding != 0 {
		report.Silence = silence.Detect(buf, opts.Silence)

		padding := report.Silence.LeadingSec + report.Silence.TrailingSec
		severity, detected := opts.SilencePadding.Match(padding)
		summary := "No silence padding"

		if detected {
			summary = fmt.Sprintf("%.1fs leading and %.1fs trailing silence",
				report.Silence.LeadingSec, report.Silence.TrailingSec)
		}

		report.add(Issue{Check: CheckSilencePadding, Detected: detected, Severity: severity, Summary: summary})
	}

	if opts.Checks&CheckTruncation != 0 {
		report.Truncation = truncation.Detect(buf, 0)

		severity, detected := opts.Truncation.Match(report.Truncation.FinalRmsDb)

		var summary string

		switch severity {
		case SeverityNone:
			summary = "Clean ending"
		case SeverityMild:
			summary = fmt.Sprintf("Possibly truncated (%.1f dB at end)", report.Truncation.FinalRmsDb)
		case SeverityModerate:
			summary = fmt.Sprintf("Likely truncated (%.1f dB at end)", report.Truncation.FinalRmsDb)
		case SeveritySevere:
			summary = fmt.Sprintf("Truncated mid-note (%.1f dB at end)", report.Truncation.FinalRmsDb)
		}

		report.add(Issue{Check: CheckTruncation, Detected: detected, Severity: severity, Summary: summary})
	}

	if opts.Checks&CheckDropouts != 0 {
		report.Dropouts = dropout.Detect(buf, opts.Dropout)

		total := dropout.EventCount(report.Dropouts)
		severity, detected := opts.Dropouts.Match(float64(total))
		summary := "No dropouts or glitches"

		if detected {
			summary = fmt.Sprintf("%d discontinuities (%d jumps, %d zero runs, %d DC shifts; worst: %.1f dB)",
				total, report.Dropouts.DeltaCount, report.Dropouts.ZeroRunCount, report.Dropouts.DCJumpCount,
				report.Dropouts.WorstDb)
		}

		report.add(Issue{Check: CheckDropouts, Detected: detected, Severity: severity, Summary: summary})
	}

	return report, nil
}

func (r *DIReport) add(issue Issue) {
	r.Issues = append(r.Issues, issue)

	if issue.Detected {
		r.IssueCount++
	}

	r.WorstSeverity = max(r.WorstSeverity, issue.Severity)
}
