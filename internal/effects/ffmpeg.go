package effects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/integration/ffmpeg"
	"github.com/farcloser/shootout/internal/normalize"
	"github.com/farcloser/shootout/internal/types"
)

const convolution = "[0:a][1:a]afir"

// FilterFunc runs a filtergraph over a buffer. Extra inputs are referenced as [1:a], [2:a]...
type FilterFunc func(ctx context.Context, buf *types.AudioBuffer, graph string, inputs ...string) (*types.AudioBuffer, error)

// FFmpeg is the default Runtime. Presets become ffmpeg filtergraphs and gain is applied in-process.
type FFmpeg struct {
	// IRDir resolves relative impulse response paths.
	IRDir  string
	filter FilterFunc
}

// NewFFmpeg returns a runtime using the ffmpeg binary.
func NewFFmpeg(irDir string) *FFmpeg {
	return &FFmpeg{IRDir: irDir, filter: ffmpeg.Filter}
}

// WithFilter returns a runtime that sends filtergraphs to filter instead of ffmpeg.
func WithFilter(irDir string, filter FilterFunc) *FFmpeg {
	return &FFmpeg{IRDir: irDir, filter: filter}
}

// Apply renders effect over buf. Unknown presets and unparsable gains are skipped with a warning.
func (f *FFmpeg) Apply(ctx context.Context, effect chain.Effect, buf *types.AudioBuffer) (*types.AudioBuffer, error) {
	switch effect.Type {
	case chain.Gain:
		db, err := strconv.ParseFloat(effect.Value, 64)
		if err != nil {
			slog.Warn("invalid gain value, skipping", "effect", effect.String())

			return buf, nil
		}

		return normalize.ApplyGainDb(buf, db), nil
	case chain.ImpulseResponse:
		irPath, err := f.IRPath(effect.Value)
		if err != nil {
			return nil, err
		}

		out, err := f.filter(ctx, buf, convolution, irPath)
		if err != nil {
			return nil, fmt.Errorf("impulse response %q: %w", irPath, err)
		}

		return out, nil
	case chain.Equalizer, chain.Reverb, chain.Delay:
		graph, ok := Graph(effect.Type, effect.Value)
		if !ok {
			slog.Warn("unknown effect preset, skipping", "effect", effect.String(), "known", Presets(effect.Type))

			return buf, nil
		}

		out, err := f.filter(ctx, buf, graph)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", effect.String(), err)
		}

		return out, nil
	case chain.Amp, chain.ExternalPlugin:
		return nil, fmt.Errorf("%w: %s", ErrNotBuiltIn, effect.Type)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotBuiltIn, effect.Type)
	}
}

// IRPath resolves an impulse response against IRDir and checks it exists.
func (f *FFmpeg) IRPath(value string) (string, error) {
	path := value
	if !filepath.IsAbs(path) && f.IRDir != "" {
		path = filepath.Join(f.IRDir, path)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: impulse response not found: %s: %w", failure.ErrIO, path, err)
		}

		return "", fmt.Errorf("%w: %w", failure.ErrIO, err)
	}

	return path, nil
}
