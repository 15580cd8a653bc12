// Package preset builds binary VST3 presets that point the Neural Amp Modeler plugin at a model file.
//
// The plugin does not expose its model path as a parameter, so the path is embedded in the component
// state of a preset which the plugin host loads before rendering.
package preset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/farcloser/shootout/internal/failure"
)

var (
	ErrParameterCount = fmt.Errorf("%w: wrong parameter count", failure.ErrPreset)
	ErrClassID        = fmt.Errorf("%w: class id must be %d ASCII characters", failure.ErrPreset, ClassIDSize)
	ErrModelNotFound  = fmt.Errorf("%w: model not found", failure.ErrPreset)
)

// Options tune the generated component state.
type Options struct {
	IRPath     string    // embedded IR path, empty when the IR is applied outside the plugin
	Version    string    // plugin version string written after the marker
	ClassID    string    // 32-character VST3 class identifier
	Parameters []float64 // normalized (0-1) control values, nil for DefaultParameters
}

func DefaultOptions() Options {
	return Options{
		Version: NAMVersion,
		ClassID: NAMClassID,
	}
}

// DefaultParameters returns the control vector used when none is supplied:
// 0 dB input and output, gate on at -80 dB, tone stack centered and on, plugin IR off, normalized output.
func DefaultParameters() []float64 {
	return []float64{0.5, 0.2, 0.5, 0.5, 0.5, 0.5, 1.0, 1.0, 0.0, 0.0, 0.6, 0.5}
}

// ForModel resolves modelPath to an absolute path, checks it exists, and returns the complete preset bytes.
func ForModel(modelPath string, opts Options) ([]byte, error) {
	absPath, err := filepath.Abs(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelNotFound, modelPath, err)
	}

	if _, err = os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, absPath)
	}

	if opts.Version == "" {
		opts.Version = NAMVersion
	}

	if opts.ClassID == "" {
		opts.ClassID = NAMClassID
	}

	state, err := ComponentState(absPath, opts.IRPath, opts.Version, opts.Parameters)
	if err != nil {
		return nil, err
	}

	return Container(opts.ClassID, state)
}

// ComponentState encodes the plugin state: marker, version, model path, IR path, then the 12 parameters.
func ComponentState(modelPath, irPath, version string, params []float64) ([]byte, error) {
	if params == nil {
		params = DefaultParameters()
	}

	if len(params) != ParameterCount {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrParameterCount, ParameterCount, len(params))
	}

	var state []byte

	state = appendString(state, NAMMarker)
	state = appendString(state, version)
	state = appendString(state, modelPath)
	state = appendString(state, irPath)

	for _, p := range params {
		state = binary.LittleEndian.AppendUint64(state, math.Float64bits(p))
	}

	return state, nil
}

// Container wraps a component state into a preset: header, state, then a one-entry chunk list.
func Container(classID string, state []byte) ([]byte, error) {
	if !isASCII(classID) || len(classID) != ClassIDSize {
		return nil, fmt.Errorf("%w: got %q", ErrClassID, classID)
	}

	chunkListOffset := uint64(HeaderSize + len(state))

	out := make([]byte, 0, HeaderSize+len(state)+8+ChunkEntrySize)
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint32(out, FormatVersion)
	out = append(out, classID...)
	out = binary.LittleEndian.AppendUint64(out, chunkListOffset)

	out = append(out, state...)

	out = append(out, ChunkListTag...)
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = append(out, ComponentTag...)
	out = binary.LittleEndian.AppendUint64(out, HeaderSize)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(state)))

	return out, nil
}

// appendString writes the length-prefixed, NUL-terminated form. An empty string is a bare zero length.
func appendString(dst []byte, s string) []byte {
	if s == "" {
		return binary.LittleEndian.AppendUint32(dst, 0)
	}

	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)+1)) //nolint:gosec // paths are far below 4GiB
	dst = append(dst, s...)

	return append(dst, 0)
}

func isASCII(s string) bool {
	for i := range len(s) {
		if s[i] > 0x7f {
			return false
		}
	}

	return true
}
