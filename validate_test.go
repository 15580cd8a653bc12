package shootout_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/shootout"
	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/types"
)

func writeWAV(t *testing.T, samples []float32) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "di.wav")
	require.NoError(t, audio.Write(path, types.NewAudioBuffer(samples, rate), 16))

	return path
}

// faded lets the last half second of samples ring out and ends on 0.2s of digital silence.
func faded(samples []float32) []float32 {
	fade := rate / 2
	end := len(samples) - rate/5

	for i := range samples {
		switch {
		case i >= end:
			samples[i] = 0
		case i >= end-fade:
			samples[i] *= float32(end-i) / float32(fade)
		}
	}

	return samples
}

func issue(t *testing.T, report *shootout.DIReport, check shootout.Check) shootout.Issue {
	t.Helper()

	for _, found := range report.Issues {
		if found.Check == check {
			return found
		}
	}

	require.FailNow(t, "missing check", check.String())

	return shootout.Issue{}
}

func TestValidateCleanTrack(t *testing.T) {
	t.Parallel()

	path := writeWAV(t, faded(sine(196, 0.5, 2).Samples))

	report, err := shootout.ValidateDITrack(context.Background(), path, shootout.DefaultValidateOptions())
	require.NoError(t, err)

	assert.Equal(t, uint32(rate), report.SampleRate)
	assert.Equal(t, 1, report.Channels)
	assert.Equal(t, 2*rate, report.Samples)
	assert.InDelta(t, 2.0, report.Duration, 1e-9)
	assert.Len(t, report.Issues, 5)
	assert.Zero(t, report.IssueCount)
	assert.Equal(t, "Clean ending", issue(t, report, shootout.CheckTruncation).Summary)
	assert.Empty(t, report.Dropouts.Events)
	assert.Equal(t, shootout.SeverityNone, report.WorstSeverity)
}

func TestValidateClipping(t *testing.T) {
	t.Parallel()

	// Clamped on write, so every half cycle is pinned at full scale.
	path := writeWAV(t, sine(100, 2, 1).Samples)

	report, err := shootout.ValidateDITrack(context.Background(), path,
		shootout.ValidateOptions{Checks: shootout.CheckClipping, Clipping: shootout.DefaultValidateOptions().Clipping})
	require.NoError(t, err)

	require.Len(t, report.Issues, 1)

	got := issue(t, report, shootout.CheckClipping)
	assert.True(t, got.Detected)
	assert.Equal(t, shootout.SeveritySevere, got.Severity)
	assert.Equal(t, uint64(200), report.Clipping.Events)
	assert.Nil(t, report.DCOffset)
	assert.Nil(t, report.Silence)
}

func TestValidateDCOffsetAndPadding(t *testing.T) {
	t.Parallel()

	tone := sine(196, 0.3, 1).Samples
	for i := range tone {
		tone[i] += 0.1
	}

	samples := make([]float32, 3*rate)
	samples = append(samples, tone...)

	opts := shootout.DefaultValidateOptions()
	opts.Checks = shootout.CheckDCOffset | shootout.CheckSilencePadding

	report, err := shootout.ValidateDITrack(context.Background(), writeWAV(t, samples), opts)
	require.NoError(t, err)

	padding := issue(t, report, shootout.CheckSilencePadding)
	assert.True(t, padding.Detected)
	assert.Equal(t, shootout.SeverityMild, padding.Severity)
	assert.InDelta(t, 3.0, report.Silence.LeadingSec, 0.05)

	// 0.1 over the whole file averages to 0.025, about -32 dBFS.
	offset := issue(t, report, shootout.CheckDCOffset)
	assert.True(t, offset.Detected)
	assert.Equal(t, shootout.SeverityMild, offset.Severity)

	assert.Equal(t, 2, report.IssueCount)
	assert.Equal(t, shootout.SeverityMild, report.WorstSeverity)
}

func TestValidateTruncation(t *testing.T) {
	t.Parallel()

	opts := shootout.DefaultValidateOptions()
	opts.Checks = shootout.CheckTruncation

	report, err := shootout.ValidateDITrack(context.Background(), writeWAV(t, sine(196, 0.5, 1).Samples), opts)
	require.NoError(t, err)

	got := issue(t, report, shootout.CheckTruncation)
	assert.True(t, got.Detected)
	assert.Equal(t, shootout.SeveritySevere, got.Severity)
	assert.Contains(t, got.Summary, "Truncated mid-note")
	assert.InDelta(t, -9.0, report.Truncation.FinalRmsDb, 0.2)
	assert.Equal(t, uint64(rate/20), report.Truncation.SamplesInTail)
}

func TestValidateDropouts(t *testing.T) {
	t.Parallel()

	// 10ms hole, from one positive peak of a 100Hz tone to the next.
	samples := sine(100, 0.9, 1).Samples
	for i := 12120; i < 12600; i++ {
		samples[i] = 0
	}

	opts := shootout.DefaultValidateOptions()
	opts.Checks = shootout.CheckDropouts

	report, err := shootout.ValidateDITrack(context.Background(), writeWAV(t, samples), opts)
	require.NoError(t, err)

	got := issue(t, report, shootout.CheckDropouts)
	assert.True(t, got.Detected)
	assert.Equal(t, shootout.SeverityMild, got.Severity)
	assert.Equal(t, 2, report.Dropouts.DeltaCount)
	assert.Equal(t, 1, report.Dropouts.ZeroRunCount)
	assert.Zero(t, report.Dropouts.DCJumpCount)
	assert.InDelta(t, -0.9, report.Dropouts.WorstDb, 0.1)
	assert.Nil(t, report.Truncation)
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	_, err := shootout.ValidateDITrack(context.Background(), filepath.Join(t.TempDir(), "nope.wav"),
		shootout.DefaultValidateOptions())
	require.ErrorIs(t, err, shootout.ErrIO)
}

func TestBandsMatch(t *testing.T) {
	t.Parallel()

	bands := shootout.Bands{Mild: 1, Moderate: 10, Severe: 100}

	for value, want := range map[float64]shootout.Severity{
		0:   shootout.SeverityNone,
		1:   shootout.SeverityMild,
		42:  shootout.SeverityModerate,
		100: shootout.SeveritySevere,
	} {
		got, detected := bands.Match(value)
		assert.Equal(t, want, got, value)
		assert.Equal(t, want != shootout.SeverityNone, detected, value)
	}
}
