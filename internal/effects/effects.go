// Package effects applies the built-in chain effects: equalizer, reverb, delay, impulse response and gain.
//
// Amp models and external plugins are not built in. They are routed to the resolver and the plugin host.
package effects

import (
	"context"
	"fmt"
	"slices"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/types"
)

var ErrNotBuiltIn = fmt.Errorf("%w: effect type is not built in", failure.ErrValidation)

// Runtime applies one built-in effect to a buffer.
type Runtime interface {
	Apply(ctx context.Context, effect chain.Effect, buf *types.AudioBuffer) (*types.AudioBuffer, error)
}

// Host renders a buffer through an external plugin. preset may be nil, irPath may be empty.
type Host interface {
	Run(ctx context.Context, plugin string, preset []byte, irPath string, buf *types.AudioBuffer) (*types.AudioBuffer, error)
}

// BuiltIn reports whether t is handled by a Runtime.
func BuiltIn(t chain.EffectType) bool {
	switch t {
	case chain.ImpulseResponse, chain.Equalizer, chain.Reverb, chain.Delay, chain.Gain:
		return true
	case chain.Amp, chain.ExternalPlugin:
		return false
	default:
		return false
	}
}

// filtergraphs for named presets, per effect type.
//
//nolint:gochecknoglobals // effectively const
var presets = map[chain.EffectType]map[string]string{
	chain.Equalizer: {
		"highpass_80hz":      "highpass=f=80",
		"lowpass_12k":        "lowpass=f=12000",
		"highshelf_presence": "highshelf=f=3000:g=3",
	},
	// Multi-tap echoes standing in for small, large and spring tanks.
	chain.Reverb: {
		"room":   "aecho=1.0:0.8:29|41|53|67:0.2|0.16|0.12|0.08",
		"hall":   "aecho=1.0:0.7:61|89|127|163|211:0.3|0.25|0.2|0.15|0.1",
		"spring": "aecho=1.0:0.85:23|31|47:0.15|0.12|0.09",
	},
	// Taps decay by the feedback ratio: slapback is 80 ms at 0.1, quarter is 375 ms at 0.3.
	chain.Delay: {
		"slapback": "aecho=1.0:1.0:80|160:0.3|0.03",
		"quarter":  "aecho=1.0:1.0:375|750|1125:0.25|0.075|0.0225",
	},
}

// Presets lists the preset names known for t, sorted.
func Presets(t chain.EffectType) []string {
	names := make([]string, 0, len(presets[t]))
	for name := range presets[t] {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Graph returns the filtergraph of a named preset.
func Graph(t chain.EffectType, preset string) (string, bool) {
	graph, ok := presets[t][preset]

	return graph, ok
}
