package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/shootout/internal/integration/binary"
	"github.com/farcloser/shootout/internal/types"
)

// Filter pipes buf through an ffmpeg filtergraph and returns the mono result at the same rate.
// With no extra inputs, graph is a simple -af chain. Otherwise it is a -filter_complex graph where
// the buffer is [0:a] and extra inputs follow in order as [1:a], [2:a]...
func Filter(ctx context.Context, buf *types.AudioBuffer, graph string, inputs ...string) (*types.AudioBuffer, error) {
	slog.Debug("ffmpeg.Filter", "graph", graph, "stage", "start")

	ffmpegPath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	rate := strconv.FormatUint(uint64(buf.SampleRate), 10)

	args := []string{
		"-v", "error",
		"-f", rawFormat, "-ar", rate, "-ac", "1", "-i", "-",
	}

	for _, input := range inputs {
		args = append(args, "-i", input)
	}

	if len(inputs) == 0 {
		args = append(args, "-af", graph)
	} else {
		args = append(args, "-filter_complex", graph)
	}

	args = append(args, "-f", rawFormat, "-ar", rate, "-ac", "1", "-")

	out, err := run(ctx, ffmpegPath, bytes.NewReader(encodeFloats(buf.Samples)), args...)
	if err != nil {
		slog.Debug("ffmpeg.Filter", "graph", graph, "stage", "error")

		return nil, err
	}

	samples, err := decodeFloats(out)
	if err != nil {
		return nil, err
	}

	slog.Debug("ffmpeg.Filter", "graph", graph, "stage", "done", "samples", len(samples))

	return types.NewAudioBuffer(samples, buf.SampleRate), nil
}

// Decode reads the first audio stream of any container ffmpeg understands, keeps its first channel
// and resamples to sampleRate.
func Decode(ctx context.Context, filePath string, sampleRate uint32) (*types.AudioBuffer, error) {
	slog.Debug("ffmpeg.Decode", "file path", filePath, "stage", "start")

	ffmpegPath, err := binary.Require(name)
	if err != nil {
		return nil, err
	}

	out, err := run(ctx, ffmpegPath, nil,
		"-v", "error",
		"-i", filePath,
		"-map", "0:a:0",
		"-af", "pan=mono|c0=c0",
		"-f", rawFormat,
		"-ar", strconv.FormatUint(uint64(sampleRate), 10),
		"-",
	)
	if err != nil {
		slog.Debug("ffmpeg.Decode", "file path", filePath, "stage", "error")

		return nil, err
	}

	samples, err := decodeFloats(out)
	if err != nil {
		return nil, err
	}

	return types.NewAudioBuffer(samples, sampleRate), nil
}

func run(ctx context.Context, ffmpegPath string, stdin *bytes.Reader, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // arguments are built from user-provided media paths and filter presets
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}
