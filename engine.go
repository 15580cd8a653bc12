package shootout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/audit/silence"
	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/config"
	"github.com/farcloser/shootout/internal/effects"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/integration/pluginhost"
	"github.com/farcloser/shootout/internal/metrics"
	"github.com/farcloser/shootout/internal/normalize"
	"github.com/farcloser/shootout/internal/provenance"
	"github.com/farcloser/shootout/internal/resolver"
	"github.com/farcloser/shootout/internal/segment"
	"github.com/farcloser/shootout/internal/types"
)

var ErrSampleRateMismatch = fmt.Errorf("%w: DI tracks in one comparison must share a sample rate", failure.ErrValidation)

//nolint:staticcheck // too dumb on Db vs. DB
type Options struct {
	InputTargetDb  float64
	OutputTargetDb float64
	PeakLimitDb    float64
	HeadroomDb     float64
	TrimSilence    bool

	ModelsDir string
	IRsDir    string

	// OutputDir receives one WAV per segment when set.
	OutputDir      string
	OutputBitDepth int

	Metrics metrics.Options
	Clock   func() time.Time

	// OnSegment is called after each segment is measured, in output order.
	OnSegment func(SegmentResult)
}

func DefaultOptions() Options {
	return Options{
		InputTargetDb:  normalize.DefaultInputTargetDb,
		OutputTargetDb: normalize.DefaultOutputTargetDb,
		PeakLimitDb:    normalize.DefaultPeakLimitDb,
		HeadroomDb:     normalize.DefaultHeadroomDb,
		OutputBitDepth: 24,
		Metrics:        metrics.DefaultOptions(),
		Clock:          time.Now,
	}
}

// OptionsFromConfig maps loaded settings onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	opts.InputTargetDb = cfg.InputTargetDb
	opts.OutputTargetDb = cfg.OutputTargetDb
	opts.PeakLimitDb = cfg.PeakLimitDb
	opts.HeadroomDb = cfg.HeadroomDb
	opts.TrimSilence = cfg.TrimSilence
	opts.ModelsDir = cfg.ModelsDir
	opts.IRsDir = cfg.IRsDir
	opts.Metrics.Loudness = cfg.LoudnessMode()

	return opts
}

// Engine runs comparisons. It is not safe for concurrent use: run one comparison at a time per engine.
type Engine struct {
	opts     Options
	runtime  effects.Runtime
	resolver *resolver.Resolver
	host     effects.Host
}

// New wires the default collaborators: plugin discovery, the plugin host process and ffmpeg.
func New(cfg *config.Config, opts Options) *Engine {
	discovery := resolver.NewDiscovery(resolver.DiscoveryOptions{Override: cfg.NAMPlugin})
	host := pluginhost.New(cfg.PluginHost)

	resolverOpts := resolver.DefaultOptions()
	resolverOpts.ModelsDir = cfg.ModelsDir

	return NewEngine(opts, effects.NewFFmpeg(cfg.IRsDir), resolver.New(discovery, host, resolverOpts), host)
}

// NewEngine assembles an engine from explicit collaborators. host may be nil when no chain uses external plugins.
func NewEngine(opts Options, runtime effects.Runtime, res *resolver.Resolver, host effects.Host) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if opts.OutputBitDepth == 0 {
		opts.OutputBitDepth = 24
	}

	return &Engine{opts: opts, runtime: runtime, resolver: res, host: host}
}

// SegmentResult is one rendered and measured segment.
type SegmentResult struct {
	Position   int                     `json:"position"`
	DITrack    string                  `json:"di_track"`
	Chain      string                  `json:"chain"`
	Effects    string                  `json:"effects"`
	Timestamps types.SegmentTimestamps `json:"timestamps"`
	Metrics    types.AudioMetrics      `json:"metrics"`
	OutputPath string                  `json:"output_path,omitempty"`
	Elapsed    time.Duration           `json:"elapsed"`
}

// Result is the outcome of a comparison run.
type Result struct {
	Meta     Meta                     `json:"meta"`
	Segments []SegmentResult          `json:"segments"`
	Metadata types.ProcessingMetadata `json:"metadata"`
}

// ApplyEffect runs a single effect, routing amps to the resolver and external plugins to the host.
func (e *Engine) ApplyEffect(ctx context.Context, effect chain.Effect, buf *types.AudioBuffer) (*types.AudioBuffer, error) {
	slog.Debug("engine.ApplyEffect", "effect", effect.String())

	switch effect.Type {
	case chain.Amp:
		return e.resolver.Process(ctx, effect, buf)
	case chain.ExternalPlugin:
		if e.host == nil {
			slog.Warn("no plugin host, skipping external plugin", "effect", effect.String())

			return buf, nil
		}

		return e.host.Run(ctx, effect.Value, nil, "", buf)
	case chain.ImpulseResponse, chain.Equalizer, chain.Reverb, chain.Delay, chain.Gain:
		return e.runtime.Apply(ctx, effect, buf)
	default:
		return nil, fmt.Errorf("%w: %s", chain.ErrUnknownEffectType, effect.Type)
	}
}

// ProcessSegment brings di to the input target level, runs it through every effect of sc in order, then
// brings the result to the output target level. di is not modified.
func (e *Engine) ProcessSegment(ctx context.Context, di *types.AudioBuffer, sc *chain.SignalChain) (*types.AudioBuffer, error) {
	current := normalize.RMS(di, e.opts.InputTargetDb, e.opts.PeakLimitDb)

	for _, effect := range sc.Effects() {
		next, err := e.ApplyEffect(ctx, effect, current)
		if err != nil {
			return nil, fmt.Errorf("chain %q: %s: %w", sc.Name, effect, err)
		}

		current = next
	}

	return normalize.RMS(current, e.opts.OutputTargetDb, e.opts.PeakLimitDb), nil
}

type loadedTrack struct {
	buf         *types.AudioBuffer
	sourceStart int64
}

// Run renders and measures every segment of comp, then seals the processing record.
func (e *Engine) Run(ctx context.Context, comp *Comparison) (*Result, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}

	started := e.opts.Clock()

	slog.Info("processing comparison", "name", comp.Meta.Name, "segments", comp.SegmentCount())

	recorder := provenance.NewRecorder(provenance.Options{Clock: e.opts.Clock})
	tracks := map[string]loadedTrack{}

	var sampleRate uint32

	for _, di := range comp.DITracks {
		if _, seen := tracks[di.Path]; seen {
			continue
		}

		track, err := e.loadTrack(ctx, di.Path)
		if err != nil {
			return nil, err
		}

		if sampleRate == 0 {
			sampleRate = track.buf.SampleRate
		} else if track.buf.SampleRate != sampleRate {
			return nil, fmt.Errorf("%w: %s is %d Hz, expected %d Hz",
				ErrSampleRateMismatch, di.Path, track.buf.SampleRate, sampleRate)
		}

		tracks[di.Path] = track

		if err = recorder.HashFile("di_track", di.Path); err != nil {
			return nil, err
		}
	}

	tracker, err := segment.NewTracker(sampleRate)
	if err != nil {
		return nil, err
	}

	result := &Result{Meta: comp.Meta}

	for _, seg := range comp.Segments() {
		segStart := e.opts.Clock()

		slog.Info("processing segment",
			"position", seg.Position+1, "of", comp.SegmentCount(), "di", seg.DITrack.Path, "chain", seg.Chain.Name)

		if err = e.recordChainInputs(recorder, seg.Chain); err != nil {
			return nil, err
		}

		track := tracks[seg.DITrack.Path]

		out, err := e.ProcessSegment(ctx, track.buf, seg.Chain)
		if err != nil {
			return nil, err
		}

		timestamps, err := tracker.AddSamples(int64(out.Len()), track.sourceStart)
		if err != nil {
			return nil, err
		}

		segResult := SegmentResult{
			Position:   seg.Position,
			DITrack:    seg.DITrack.Path,
			Chain:      seg.Chain.Name,
			Effects:    seg.Chain.String(),
			Timestamps: timestamps,
			Metrics:    metrics.Extract(out, e.opts.Metrics),
		}

		if e.opts.OutputDir != "" {
			segResult.OutputPath = filepath.Join(e.opts.OutputDir,
				fmt.Sprintf("%s_%03d.wav", SanitizeName(comp.Meta.Name), seg.Position))

			if err = audio.Write(segResult.OutputPath, out, e.opts.OutputBitDepth); err != nil {
				return nil, err
			}
		}

		segResult.Elapsed = e.opts.Clock().Sub(segStart)
		result.Segments = append(result.Segments, segResult)

		if e.opts.OnSegment != nil {
			e.opts.OnSegment(segResult)
		}
	}

	if err = e.seal(ctx, recorder, sampleRate); err != nil {
		return nil, err
	}

	elapsed := e.opts.Clock().Sub(started)

	result.Metadata, err = recorder.Finalize(tracker, &elapsed)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (e *Engine) loadTrack(ctx context.Context, path string) (loadedTrack, error) {
	buf, _, err := audio.LoadMono(ctx, path)
	if err != nil {
		return loadedTrack{}, err
	}

	if buf.Len() == 0 || buf.SampleRate == 0 {
		return loadedTrack{}, fmt.Errorf("%w: %s", ErrEmptyTrack, path)
	}

	if !e.opts.TrimSilence {
		return loadedTrack{buf: buf}, nil
	}

	trimmed, start := silence.Trim(buf, silence.TrimOptions())

	slog.Debug("engine.loadTrack", "path", path, "trimmed from", start, "samples", trimmed.Len())

	return loadedTrack{buf: trimmed, sourceStart: start}, nil
}

func (e *Engine) recordChainInputs(recorder *provenance.Recorder, sc *chain.SignalChain) error {
	for _, model := range sc.AmpModels() {
		if err := recorder.HashOptional("model", e.resolver.ModelPath(model)); err != nil {
			return err
		}
	}

	for _, ir := range sc.ImpulseResponses() {
		path := ir
		if !filepath.IsAbs(path) && e.opts.IRsDir != "" {
			path = filepath.Join(e.opts.IRsDir, path)
		}

		if err := recorder.HashOptional("ir", path); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) seal(ctx context.Context, recorder *provenance.Recorder, sampleRate uint32) error {
	if err := recorder.SetVersions(provenance.CollectVersions(ctx, e.resolver.AmpRuntime())); err != nil {
		return err
	}

	if err := recorder.SetAudioSettings(provenance.DefaultAudioSettings(sampleRate)); err != nil {
		return err
	}

	return recorder.SetNormalization(types.NormalizationSettings{
		InputTargetRmsDb:  e.opts.InputTargetDb,
		OutputTargetRmsDb: e.opts.OutputTargetDb,
		Method:            normalize.MethodRMS.String(),
		HeadroomDb:        e.opts.HeadroomDb,
	})
}

//nolint:gochecknoglobals // compiled once
var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName turns a comparison name into a file name stem.
func SanitizeName(name string) string {
	stem := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if stem == "" {
		return "comparison"
	}

	return stem
}
