// Package chain models ordered effect chains and parses their textual form.
//
// The textual form is a comma-separated list of `type:value` tokens, for example
// "amp:models/plexi.nam, impulse_response:cab/4x12.wav, gain:-3".
package chain

import (
	"fmt"
	"strings"

	"github.com/farcloser/shootout/internal/failure"
)

// EffectType is the closed set of effect kinds a chain can contain.
type EffectType int

const (
	Amp EffectType = iota
	ImpulseResponse
	Equalizer
	Reverb
	Delay
	Gain
	ExternalPlugin
)

// EffectTypes lists every effect type in declaration order.
//
//nolint:gochecknoglobals // effectively const
var EffectTypes = []EffectType{Amp, ImpulseResponse, Equalizer, Reverb, Delay, Gain, ExternalPlugin}

func (t EffectType) String() string {
	switch t {
	case Amp:
		return "amp"
	case ImpulseResponse:
		return "impulse_response"
	case Equalizer:
		return "equalizer"
	case Reverb:
		return "reverb"
	case Delay:
		return "delay"
	case Gain:
		return "gain"
	case ExternalPlugin:
		return "external_plugin"
	default:
		return "unknown"
	}
}

// Short forms accepted in comparison files.
//
//nolint:gochecknoglobals // effectively const
var aliases = map[string]EffectType{
	"nam": Amp,
	"ir":  ImpulseResponse,
	"eq":  Equalizer,
	"vst": ExternalPlugin,
}

var (
	ErrMalformedEffect   = fmt.Errorf("%w: effect must be of the form type:value", failure.ErrParse)
	ErrUnknownEffectType = fmt.Errorf("%w: unknown effect type", failure.ErrValidation)
	ErrEmptyChain        = fmt.Errorf("%w: signal chain has no effects", failure.ErrValidation)
)

// ParseEffectType resolves a lower-cased type token, canonical name or short form.
func ParseEffectType(token string) (EffectType, error) {
	for _, t := range EffectTypes {
		if t.String() == token {
			return t, nil
		}
	}

	if t, ok := aliases[token]; ok {
		return t, nil
	}

	names := make([]string, len(EffectTypes))
	for i, t := range EffectTypes {
		names[i] = t.String()
	}

	return 0, fmt.Errorf("%w %q (valid: %s)", ErrUnknownEffectType, token, strings.Join(names, ", "))
}

// Effect is one step of a chain. Value is the model path, IR path, preset name or gain in dB, depending on Type.
type Effect struct {
	Type  EffectType
	Value string
}

func (e Effect) String() string {
	return e.Type.String() + ":" + e.Value
}

// Parse turns chain text into its ordered effects.
// Commas nested in brackets do not split, so values like "eq:peak(1000,3)" survive intact.
func Parse(text string) ([]Effect, error) {
	var effects []Effect

	for _, token := range splitTopLevel(text) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		kind, value, found := strings.Cut(token, ":")
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrMalformedEffect, token)
		}

		effectType, err := ParseEffectType(strings.ToLower(strings.TrimSpace(kind)))
		if err != nil {
			return nil, err
		}

		effects = append(effects, Effect{Type: effectType, Value: strings.TrimSpace(value)})
	}

	if len(effects) == 0 {
		return nil, ErrEmptyChain
	}

	return effects, nil
}

func splitTopLevel(text string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for idx, r := range text {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:idx])
				start = idx + 1
			}
		default:
		}
	}

	return append(parts, text[start:])
}

// SignalChain is a named, ordered, non-empty list of effects.
type SignalChain struct {
	Name        string
	Description string
	effects     []Effect
}

// New parses text into a named chain.
func New(name, description, text string) (*SignalChain, error) {
	effects, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("chain %q: %w", name, err)
	}

	return &SignalChain{Name: name, Description: description, effects: effects}, nil
}

// FromEffects builds a chain from already parsed effects.
func FromEffects(name, description string, effects []Effect) (*SignalChain, error) {
	if len(effects) == 0 {
		return nil, fmt.Errorf("chain %q: %w", name, ErrEmptyChain)
	}

	return &SignalChain{Name: name, Description: description, effects: append([]Effect(nil), effects...)}, nil
}

// Effects returns a copy of the chain's effects in application order.
func (c *SignalChain) Effects() []Effect {
	return append([]Effect(nil), c.effects...)
}

// Len returns the number of effects.
func (c *SignalChain) Len() int {
	return len(c.effects)
}

// String renders the chain back to text that Parse accepts.
func (c *SignalChain) String() string {
	parts := make([]string, len(c.effects))
	for i, e := range c.effects {
		parts[i] = e.String()
	}

	return strings.Join(parts, ", ")
}

// AmpModels returns the values of every amp effect, in order.
func (c *SignalChain) AmpModels() []string {
	return c.valuesOf(Amp)
}

// ImpulseResponses returns the values of every impulse response effect, in order.
func (c *SignalChain) ImpulseResponses() []string {
	return c.valuesOf(ImpulseResponse)
}

func (c *SignalChain) valuesOf(t EffectType) []string {
	var out []string

	for _, e := range c.effects {
		if e.Type == t {
			out = append(out, e.Value)
		}
	}

	return out
}
