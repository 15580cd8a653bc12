// Package pluginhost hands audio to an external plugin host process.
//
// The host is invoked as:
//
//	<binary> --plugin <bundle> [--preset <file>] [--ir <file>] --input <wav> --output <wav>
//
// and must write a WAV file at the output path. Only the first channel of that file is kept.
package pluginhost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/integration/binary"
	"github.com/farcloser/shootout/internal/types"
)

// ErrSampleRate is returned when the host renders at a rate other than the one it was given.
var ErrSampleRate = fmt.Errorf("%w: plugin host changed the sample rate", fault.ErrCommandFailure)

// Host runs Binary once per render.
type Host struct {
	Binary string
}

func New(bin string) *Host {
	if bin == "" {
		bin = DefaultBinary
	}

	return &Host{Binary: bin}
}

// Available reports whether the host binary can be found.
func (h *Host) Available() bool {
	_, found := binary.Available(h.Binary)

	return found
}

// Run renders buf through plugin, loading preset first when given.
func (h *Host) Run(
	ctx context.Context,
	plugin string,
	preset []byte,
	irPath string,
	buf *types.AudioBuffer,
) (*types.AudioBuffer, error) {
	slog.Debug("pluginhost.Run", "plugin", plugin, "stage", "start")

	hostPath, err := binary.Require(h.Binary)
	if err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "shootout-host-")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", failure.ErrIO, err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "in.wav")
	outPath := filepath.Join(workDir, "out.wav")

	if err = audio.Write(inPath, buf, bitDepth); err != nil {
		return nil, err
	}

	args := []string{"--plugin", plugin}

	if preset != nil {
		presetPath := filepath.Join(workDir, "state.vstpreset")
		if err = os.WriteFile(presetPath, preset, 0o600); err != nil {
			return nil, fmt.Errorf("%w: %w", failure.ErrIO, err)
		}

		args = append(args, "--preset", presetPath)
	}

	if irPath != "" {
		args = append(args, "--ir", irPath)
	}

	args = append(args, "--input", inPath, "--output", outPath)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // the host binary and plugin bundle are configured by the operator
	cmd := exec.CommandContext(ctx, hostPath, args...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err = cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("pluginhost.Run", "plugin", plugin, "stage", "timeout")

			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("pluginhost.Run", "plugin", plugin, "stage", "error")

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	out, info, err := audio.LoadMono(ctx, outPath)
	if err != nil {
		return nil, err
	}

	if info.SampleRate != buf.SampleRate {
		slog.Debug("pluginhost.Run", "plugin", plugin, "stage", "error", "in", buf.SampleRate, "out", info.SampleRate)

		return nil, fmt.Errorf("%w: %d Hz in, %d Hz out", ErrSampleRate, buf.SampleRate, info.SampleRate)
	}

	slog.Debug("pluginhost.Run", "plugin", plugin, "stage", "done")

	return out, nil
}
