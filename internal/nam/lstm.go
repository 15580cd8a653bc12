package nam

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//nolint:tagliatelle
type lstmConfig struct {
	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`
	NumLayers  int `json:"num_layers"`
}

// lstmLayer holds one layer. Gate rows are ordered input, forget, cell, output.
type lstmLayer struct {
	weights *mat.Dense // 4H x (I+H), input columns first
	bias    []float64
	hidden0 []float64
	cell0   []float64
}

type lstm struct {
	layers     []lstmLayer
	hiddenSize int
	head       []float64
	headBias   float64
}

func newLSTM(raw json.RawMessage, weights []float64) (*lstm, error) {
	var cfg lstmConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if cfg.InputSize != 1 || cfg.HiddenSize < 1 || cfg.NumLayers < 1 {
		return nil, fmt.Errorf("%w: input_size %d, hidden_size %d, num_layers %d",
			ErrConfig, cfg.InputSize, cfg.HiddenSize, cfg.NumLayers)
	}

	hidden := cfg.HiddenSize
	want := hidden + 1

	for layer := range cfg.NumLayers {
		inputs := hidden
		if layer == 0 {
			inputs = cfg.InputSize
		}

		want += 4*hidden*(inputs+hidden) + 4*hidden + 2*hidden
	}

	if err := checkWeights(len(weights), want); err != nil {
		return nil, err
	}

	net := &lstm{hiddenSize: hidden, layers: make([]lstmLayer, cfg.NumLayers)}

	offset := 0
	take := func(n int) []float64 {
		chunk := weights[offset : offset+n]
		offset += n

		return chunk
	}

	for layer := range net.layers {
		inputs := hidden
		if layer == 0 {
			inputs = cfg.InputSize
		}

		cols := inputs + hidden

		net.layers[layer] = lstmLayer{
			weights: mat.NewDense(4*hidden, cols, append([]float64(nil), take(4*hidden*cols)...)),
			bias:    take(4 * hidden),
			hidden0: take(hidden),
			cell0:   take(hidden),
		}
	}

	net.head = take(hidden)
	net.headBias = take(1)[0]

	return net, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (n *lstm) process(in []float32) []float32 {
	hidden := n.hiddenSize

	type state struct {
		input  *mat.VecDense
		gates  *mat.VecDense
		hidden []float64
		cell   []float64
	}

	states := make([]state, len(n.layers))
	for i, layer := range n.layers {
		_, cols := layer.weights.Dims()
		states[i] = state{
			input:  mat.NewVecDense(cols, nil),
			gates:  mat.NewVecDense(4*hidden, nil),
			hidden: append([]float64(nil), layer.hidden0...),
			cell:   append([]float64(nil), layer.cell0...),
		}
	}

	out := make([]float32, len(in))
	first := []float64{0}

	for t, sample := range in {
		first[0] = float64(sample)
		x := first

		for i, layer := range n.layers {
			st := &states[i]

			raw := st.input.RawVector().Data
			copy(raw, x)
			copy(raw[len(x):], st.hidden)

			st.gates.MulVec(layer.weights, st.input)

			gates := st.gates.RawVector().Data
			floats.Add(gates, layer.bias)

			for h := range hidden {
				inGate := sigmoid(gates[h])
				forget := sigmoid(gates[hidden+h])
				candidate := math.Tanh(gates[2*hidden+h])
				outGate := sigmoid(gates[3*hidden+h])

				st.cell[h] = forget*st.cell[h] + inGate*candidate
				st.hidden[h] = outGate * math.Tanh(st.cell[h])
			}

			x = st.hidden
		}

		out[t] = float32(floats.Dot(n.head, x) + n.headBias)
	}

	return out
}
