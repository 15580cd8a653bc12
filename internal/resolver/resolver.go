// Package resolver decides how each amp effect runs: through the NAM plugin with a generated preset,
// or through in-process inference when the plugin is missing or fails.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/effects"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/nam"
	"github.com/farcloser/shootout/internal/preset"
	"github.com/farcloser/shootout/internal/types"
)

var ErrNotAmp = fmt.Errorf("%w: effect is not an amp model", failure.ErrValidation)

// Resolution is either a PluginPreset or a LocalInference.
type Resolution interface {
	resolution()
}

// PluginPreset drives the NAM plugin with Bytes, a preset pointing at ModelPath.
type PluginPreset struct {
	Plugin    string
	ModelPath string
	Bytes     []byte
}

// LocalInference runs Model in-process.
type LocalInference struct {
	Model *nam.Model
}

func (PluginPreset) resolution()   {}
func (LocalInference) resolution() {}

type Options struct {
	// ModelsDir resolves relative model paths.
	ModelsDir string
	Preset    preset.Options
}

func DefaultOptions() Options {
	return Options{Preset: preset.DefaultOptions()}
}

// Resolver is owned by one comparison job and is not safe for concurrent use.
// Loaded models are kept for the lifetime of the resolver.
type Resolver struct {
	discovery *Discovery
	host      effects.Host
	opts      Options
	models    map[string]*nam.Model
}

// New returns a resolver. host may be nil, in which case every plugin hand-off falls back.
func New(discovery *Discovery, host effects.Host, opts Options) *Resolver {
	return &Resolver{
		discovery: discovery,
		host:      host,
		opts:      opts,
		models:    map[string]*nam.Model{},
	}
}

// ModelPath resolves value against the models directory.
func (r *Resolver) ModelPath(value string) string {
	if filepath.IsAbs(value) || r.opts.ModelsDir == "" {
		return value
	}

	return filepath.Join(r.opts.ModelsDir, value)
}

// AmpRuntime names the amp runtime for provenance: the plugin and its version, or empty for local inference.
func (r *Resolver) AmpRuntime() string {
	if _, ok := r.discovery.Plugin(); !ok {
		return ""
	}

	version := r.opts.Preset.Version
	if version == "" {
		version = preset.NAMVersion
	}

	return "NeuralAmpModeler " + version
}

// Resolve picks the runtime for a model. A preset that cannot be built is logged and replaced by local inference.
func (r *Resolver) Resolve(modelPath, irPath string) (Resolution, error) {
	path := r.ModelPath(modelPath)

	if plugin, ok := r.discovery.Plugin(); ok {
		opts := r.opts.Preset
		opts.IRPath = irPath

		data, err := preset.ForModel(path, opts)
		if err == nil {
			return PluginPreset{Plugin: plugin, ModelPath: path, Bytes: data}, nil
		}

		slog.Warn("preset generation failed, using local inference", "model", path, "error", err)
	}

	model, err := r.load(path)
	if err != nil {
		return nil, err
	}

	return LocalInference{Model: model}, nil
}

// Process renders buf through the amp effect. Plugin failures fall back to local inference; the error
// returned wraps failure.ErrModelLoad and names the model path when both fail.
func (r *Resolver) Process(ctx context.Context, effect chain.Effect, buf *types.AudioBuffer) (*types.AudioBuffer, error) {
	if effect.Type != chain.Amp {
		return nil, fmt.Errorf("%w: %s", ErrNotAmp, effect)
	}

	resolved, err := r.Resolve(effect.Value, "")
	if err != nil {
		return nil, err
	}

	switch res := resolved.(type) {
	case PluginPreset:
		out, handErr := r.handOff(ctx, res, buf)
		if handErr == nil {
			return out, nil
		}

		slog.Warn("plugin processing failed, using local inference", "model", res.ModelPath, "error", handErr)

		model, err := r.load(res.ModelPath)
		if err != nil {
			return nil, err
		}

		return infer(model, buf), nil
	case LocalInference:
		return infer(res.Model, buf), nil
	default:
		return nil, fmt.Errorf("%w: %s: unknown resolution %T", failure.ErrModelLoad, effect.Value, resolved)
	}
}

func (r *Resolver) handOff(ctx context.Context, res PluginPreset, buf *types.AudioBuffer) (*types.AudioBuffer, error) {
	if r.host == nil {
		return nil, fmt.Errorf("%w: no plugin host configured", failure.ErrModelLoad)
	}

	return r.host.Run(ctx, res.Plugin, res.Bytes, "", buf)
}

func (r *Resolver) load(path string) (*nam.Model, error) {
	if model, ok := r.models[path]; ok {
		return model, nil
	}

	model, err := nam.Load(path)
	if err != nil {
		return nil, err
	}

	r.models[path] = model

	return model, nil
}

func infer(model *nam.Model, buf *types.AudioBuffer) *types.AudioBuffer {
	if model.SampleRate > 0 && model.SampleRate != float64(buf.SampleRate) {
		slog.Warn("model sample rate differs from the buffer",
			"model", model.Path, "model rate", model.SampleRate, "buffer rate", buf.SampleRate)
	}

	return types.NewAudioBuffer(model.Process(buf.Samples), buf.SampleRate)
}
