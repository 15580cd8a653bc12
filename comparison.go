package shootout

import (
	"fmt"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/failure"
)

var ErrEmptyComparison = fmt.Errorf("%w: a comparison needs at least one DI track and one signal chain", failure.ErrValidation)

// Meta describes a comparison.
type Meta struct {
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// DITrack is a dry guitar recording and what it was played on.
type DITrack struct {
	Path   string `json:"path"`
	Guitar string `json:"guitar,omitempty"`
	Pickup string `json:"pickup,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Comparison renders every DI track through every chain.
type Comparison struct {
	Meta     Meta
	DITracks []DITrack
	Chains   []*chain.SignalChain
}

// Segment is one (chain, DI track) pair at its position in the output.
type Segment struct {
	Position int
	DITrack  DITrack
	Chain    *chain.SignalChain
}

// SegmentCount is the number of DI tracks times the number of chains.
func (c *Comparison) SegmentCount() int {
	return len(c.DITracks) * len(c.Chains)
}

// Segments lists the pairs in output order: chains outer, DI tracks inner, so that every DI track is heard
// through one chain before moving to the next chain.
func (c *Comparison) Segments() []Segment {
	segments := make([]Segment, 0, c.SegmentCount())

	for _, sc := range c.Chains {
		for _, di := range c.DITracks {
			segments = append(segments, Segment{Position: len(segments), DITrack: di, Chain: sc})
		}
	}

	return segments
}

func (c *Comparison) Validate() error {
	if len(c.DITracks) == 0 || len(c.Chains) == 0 {
		return fmt.Errorf("%w: %d DI tracks, %d chains", ErrEmptyComparison, len(c.DITracks), len(c.Chains))
	}

	for i, di := range c.DITracks {
		if di.Path == "" {
			return fmt.Errorf("%w: DI track %d has no path", failure.ErrValidation, i)
		}
	}

	for i, sc := range c.Chains {
		if sc == nil || sc.Len() == 0 {
			return fmt.Errorf("%w: chain %d: %w", failure.ErrValidation, i, chain.ErrEmptyChain)
		}
	}

	return nil
}
