// Package provenance assembles the reproducibility record of a comparison job: tool versions,
// processing settings, input hashes and the output timeline totals.
package provenance

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/farcloser/shootout/internal/normalize"
	"github.com/farcloser/shootout/internal/types"
)

// ErrFrozen is returned when a finalized record is modified.
var ErrFrozen = errors.New("provenance: record is finalized")

// Timeline is what the recorder needs from a segment tracker.
type Timeline interface {
	TotalDurationMs() int64
	Count() int
}

type Options struct {
	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{Clock: time.Now}
}

// DefaultAudioSettings describes mono float32 processing at sampleRate.
func DefaultAudioSettings(sampleRate uint32) types.AudioSettings {
	return types.AudioSettings{
		SampleRate: sampleRate,
		BitDepth:   32,
		Channels:   1,
		Format:     "float32",
	}
}

// DefaultNormalization returns the stock level targets.
func DefaultNormalization() types.NormalizationSettings {
	return types.NormalizationSettings{
		InputTargetRmsDb:  normalize.DefaultInputTargetDb,
		OutputTargetRmsDb: normalize.DefaultOutputTargetDb,
		Method:            normalize.MethodRMS.String(),
		HeadroomDb:        normalize.DefaultHeadroomDb,
	}
}

type hashKey struct {
	role string
	path string
}

// Recorder accumulates metadata while a job runs. It is append-only until Finalize, after which
// every mutation fails with ErrFrozen.
type Recorder struct {
	clock         func() time.Time
	versions      types.Versions
	audioSettings types.AudioSettings
	normalization types.NormalizationSettings
	hashes        []types.FileHash
	seen          map[hashKey]bool
	record        *types.ProcessingMetadata
}

func NewRecorder(opts Options) *Recorder {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Recorder{
		clock:         opts.Clock,
		normalization: DefaultNormalization(),
		seen:          map[hashKey]bool{},
	}
}

func (r *Recorder) SetVersions(versions types.Versions) error {
	if r.record != nil {
		return ErrFrozen
	}

	r.versions = versions

	return nil
}

func (r *Recorder) SetAudioSettings(settings types.AudioSettings) error {
	if r.record != nil {
		return ErrFrozen
	}

	r.audioSettings = settings

	return nil
}

func (r *Recorder) SetNormalization(settings types.NormalizationSettings) error {
	if r.record != nil {
		return ErrFrozen
	}

	r.normalization = settings

	return nil
}

// HashFile records the hash of a required input. A (role, path) pair is hashed once.
func (r *Recorder) HashFile(role, path string) error {
	if r.record != nil {
		return ErrFrozen
	}

	key := hashKey{role: role, path: path}
	if r.seen[key] {
		return nil
	}

	sum, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing %s %q: %w", role, path, err)
	}

	r.seen[key] = true
	r.hashes = append(r.hashes, types.FileHash{Role: role, Path: path, SHA256: &sum})

	return nil
}

// HashOptional records the hash of an optional input. An empty path or a missing file is recorded
// with a nil hash; other read failures are returned.
func (r *Recorder) HashOptional(role, path string) error {
	if r.record != nil {
		return ErrFrozen
	}

	key := hashKey{role: role, path: path}
	if r.seen[key] {
		return nil
	}

	entry := types.FileHash{Role: role, Path: path}

	if path != "" {
		sum, err := HashFile(path)

		switch {
		case err == nil:
			entry.SHA256 = &sum
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("hashing %s %q: %w", role, path, err)
		}
	}

	r.seen[key] = true
	r.hashes = append(r.hashes, entry)

	return nil
}

// Finalize freezes the record. processing is the wall time of the job, nil when not measured.
func (r *Recorder) Finalize(timeline Timeline, processing *time.Duration) (types.ProcessingMetadata, error) {
	if r.record != nil {
		return types.ProcessingMetadata{}, ErrFrozen
	}

	record := types.ProcessingMetadata{
		Versions:              r.versions,
		AudioSettings:         r.audioSettings,
		NormalizationSettings: r.normalization,
		FileHashes:            append([]types.FileHash{}, r.hashes...),
		ProcessedAt:           r.clock().UTC().Format(time.RFC3339),
		PlatformInfo:          runtime.GOOS + " " + runtime.GOARCH,
	}

	if timeline != nil {
		record.TotalDurationMs = timeline.TotalDurationMs()
		record.SegmentCount = timeline.Count()
	}

	if processing != nil {
		seconds := processing.Seconds()
		record.ProcessingDurationSeconds = &seconds
	}

	r.record = &record

	return detached(record), nil
}

// Record returns the finalized record, if any.
func (r *Recorder) Record() (types.ProcessingMetadata, bool) {
	if r.record == nil {
		return types.ProcessingMetadata{}, false
	}

	return detached(*r.record), true
}

// detached copies the parts of a record held by reference, so callers cannot reach the frozen one.
func detached(record types.ProcessingMetadata) types.ProcessingMetadata {
	record.FileHashes = slices.Clone(record.FileHashes)

	if record.ProcessingDurationSeconds != nil {
		seconds := *record.ProcessingDurationSeconds
		record.ProcessingDurationSeconds = &seconds
	}

	return record
}
