package nam

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

//nolint:tagliatelle
type linearConfig struct {
	ReceptiveField int  `json:"receptive_field"`
	Bias           bool `json:"bias"`
}

// linear is a causal FIR. Weights are stored oldest tap first.
type linear struct {
	weights []float64
	bias    float64
}

func newLinear(raw json.RawMessage, weights []float64) (*linear, error) {
	var cfg linearConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if cfg.ReceptiveField < 1 {
		return nil, fmt.Errorf("%w: receptive field %d", ErrConfig, cfg.ReceptiveField)
	}

	want := cfg.ReceptiveField
	if cfg.Bias {
		want++
	}

	if err := checkWeights(len(weights), want); err != nil {
		return nil, err
	}

	net := &linear{weights: weights[:cfg.ReceptiveField]}
	if cfg.Bias {
		net.bias = weights[cfg.ReceptiveField]
	}

	return net, nil
}

func (l *linear) process(in []float32) []float32 {
	taps := len(l.weights)

	// Zero history in front of the input keeps the output aligned with it.
	padded := make([]float64, taps-1+len(in))
	for i, s := range in {
		padded[taps-1+i] = float64(s)
	}

	out := make([]float32, len(in))
	for i := range out {
		out[i] = float32(l.bias + floats.Dot(l.weights, padded[i:i+taps]))
	}

	return out
}
