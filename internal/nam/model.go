// Package nam runs Neural Amp Modeler captures in-process, for when the NAM plugin is not installed.
//
// Only the Linear and LSTM architectures are supported. WaveNet and ConvNet captures fail to load.
package nam

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/farcloser/shootout/internal/failure"
)

const (
	ArchitectureLinear = "Linear"
	ArchitectureLSTM   = "LSTM"
)

var (
	ErrArchitecture = errors.New("unsupported architecture")
	ErrConfig       = errors.New("invalid model config")
	ErrWeights      = errors.New("weight count mismatch")
)

// file is the on-disk JSON layout of a .nam capture.
//
//nolint:tagliatelle
type file struct {
	Version      string          `json:"version"`
	Architecture string          `json:"architecture"`
	Config       json.RawMessage `json:"config"`
	Weights      []float64       `json:"weights"`
	SampleRate   float64         `json:"sample_rate,omitempty"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}

type network interface {
	// process runs a fresh network state over in. Output has the same length.
	process(in []float32) []float32
}

// Model is a loaded capture.
type Model struct {
	Path         string
	Version      string
	Architecture string
	// SampleRate the capture was trained at, 0 when the file does not say.
	SampleRate float64
	Metadata   map[string]any

	net network
}

// Load reads and builds the capture at path. Every failure wraps failure.ErrModelLoad and names the path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // model paths come from the chain
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", failure.ErrModelLoad, path, err)
	}

	model, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", failure.ErrModelLoad, path, err)
	}

	model.Path = path

	slog.Debug("nam.Load", "path", path, "architecture", model.Architecture, "version", model.Version)

	return model, nil
}

// Decode builds a model from the JSON content of a .nam file.
func Decode(data []byte) (*Model, error) {
	var capture file
	if err := json.Unmarshal(data, &capture); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var (
		net network
		err error
	)

	switch capture.Architecture {
	case ArchitectureLinear:
		net, err = newLinear(capture.Config, capture.Weights)
	case ArchitectureLSTM:
		net, err = newLSTM(capture.Config, capture.Weights)
	default:
		return nil, fmt.Errorf("%w: %q", ErrArchitecture, capture.Architecture)
	}

	if err != nil {
		return nil, err
	}

	return &Model{
		Version:      capture.Version,
		Architecture: capture.Architecture,
		SampleRate:   capture.SampleRate,
		Metadata:     capture.Metadata,
		net:          net,
	}, nil
}

// Process runs the capture over samples. The input is not modified and the output has the same length.
func (m *Model) Process(samples []float32) []float32 {
	return m.net.process(samples)
}

func checkWeights(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrWeights, got, want)
	}

	return nil
}
