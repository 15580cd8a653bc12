// Package shootout renders DI recordings through amp signal chains and measures the results, so that
// different tones can be compared at equal loudness and every rendered segment traced back to its inputs.
//
// Usage:
//
//	cfg, err := config.Load()
//	engine := shootout.New(cfg, shootout.OptionsFromConfig(cfg))
//	result, err := engine.Run(ctx, comparison)
//	for _, segment := range result.Segments {
//	    fmt.Printf("%s on %s: %.1f LUFS\n", segment.Chain, segment.DITrack, segment.Metrics.Advanced.LufsIntegrated)
//	}
package shootout

import "github.com/farcloser/shootout/internal/failure"

// Error kinds. Every error returned by the engine wraps one of these, or a primordium fault for
// missing or failing external tools.
var (
	ErrParse      = failure.ErrParse
	ErrValidation = failure.ErrValidation
	ErrModelLoad  = failure.ErrModelLoad
	ErrPreset     = failure.ErrPreset
	ErrIO         = failure.ErrIO
)
