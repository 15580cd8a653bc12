// Package audio reads and writes the sample data the engine works on.
// WAV PCM is handled in-process. Anything else goes through ffprobe and ffmpeg.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/integration/ffmpeg"
	"github.com/farcloser/shootout/internal/integration/ffprobe"
	"github.com/farcloser/shootout/internal/types"
)

const wavFormatPCM = 1

var ErrBitDepth = fmt.Errorf("%w: unsupported bit depth", failure.ErrValidation)

// Info describes the source file, before any channel reduction.
type Info struct {
	Path       string
	Codec      string
	SampleRate uint32
	Channels   int
	BitDepth   int
}

// Load decodes the file at path. WAV PCM keeps every channel; other containers are reduced to their
// first channel by ffmpeg at the source rate.
func Load(ctx context.Context, path string) (*types.Frames, *Info, error) {
	frames, info, ok, err := loadWAV(path)
	if err != nil {
		return nil, nil, err
	}

	if ok {
		return frames, info, nil
	}

	slog.Debug("audio.Load", "path", path, "stage", "ffmpeg fallback")

	return loadOther(ctx, path)
}

// LoadMono decodes the file at path and keeps its first channel.
func LoadMono(ctx context.Context, path string) (*types.AudioBuffer, *Info, error) {
	frames, info, err := Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	return frames.Mono(), info, nil
}

// loadWAV returns ok false when the file is not an integer PCM WAV.
func loadWAV(path string) (*types.Frames, *Info, bool, error) {
	file, err := os.Open(path) //nolint:gosec // DI and IR paths are user-provided
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %w", failure.ErrIO, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() || decoder.WavAudioFormat != wavFormatPCM {
		return nil, nil, false, nil
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, false, fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, nil, false, fmt.Errorf("%w: %s: invalid wav format", failure.ErrIO, path)
	}

	bitDepth := int(decoder.BitDepth)

	frames := &types.Frames{
		Samples:    toFloat(buf.Data, bitDepth),
		Channels:   buf.Format.NumChannels,
		SampleRate: uint32(buf.Format.SampleRate), //nolint:gosec // checked positive above
	}

	return frames, &Info{
		Path:       path,
		Codec:      "wav",
		SampleRate: frames.SampleRate,
		Channels:   frames.Channels,
		BitDepth:   bitDepth,
	}, true, nil
}

func loadOther(ctx context.Context, path string) (*types.Frames, *Info, error) {
	probed, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	stream, err := probed.Audio()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", failure.ErrIO, err)
	}

	rate, err := stream.Rate()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	buf, err := ffmpeg.Decode(ctx, path, rate)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	return &types.Frames{Samples: buf.Samples, Channels: 1, SampleRate: rate}, &Info{
		Path:       path,
		Codec:      stream.CodecName,
		SampleRate: rate,
		Channels:   stream.Channels,
		BitDepth:   stream.BitsPerSample,
	}, nil
}

// toFloat maps integer PCM to [-1, 1). 8-bit WAV is unsigned.
func toFloat(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))

	if bitDepth == 8 {
		for i, v := range data {
			out[i] = float32(v-128) / 128
		}

		return out
	}

	scale := math.Ldexp(1, bitDepth-1)
	for i, v := range data {
		out[i] = float32(float64(v) / scale)
	}

	return out
}

// Write encodes buf as mono integer PCM WAV at the given depth (16, 24 or 32). Samples are clamped.
func Write(path string, buf *types.AudioBuffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: %w", failure.ErrIO, err)
	}

	file, err := os.Create(path) //nolint:gosec // output directory is user-provided
	if err != nil {
		return fmt.Errorf("%w: %w", failure.ErrIO, err)
	}
	defer file.Close()

	maxValue := math.Ldexp(1, bitDepth-1) - 1
	data := make([]int, len(buf.Samples))

	for i, s := range buf.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, float64(s))) * maxValue))
	}

	encoder := wav.NewEncoder(file, int(buf.SampleRate), bitDepth, 1, wavFormatPCM)

	if err = encoder.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: int(buf.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	if err = encoder.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", failure.ErrIO, path, err)
	}

	return nil
}
