// Package config reads engine settings from SHOOTOUT_* environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/farcloser/shootout/internal/failure"
	"github.com/farcloser/shootout/internal/metrics"
	"github.com/farcloser/shootout/internal/normalize"
	"github.com/farcloser/shootout/internal/types"
)

const Prefix = "SHOOTOUT"

var ErrInvalid = fmt.Errorf("%w: invalid configuration", failure.ErrValidation)

//nolint:staticcheck // too dumb on Db vs. DB
type Config struct {
	NAMPlugin  string `envconfig:"NAM_PLUGIN"`                              // plugin bundle, skips discovery
	PluginHost string `envconfig:"PLUGIN_HOST" default:"shootout-host"`     // host binary name or path
	ModelsDir  string `envconfig:"MODELS_DIR" default:"inputs/nam_models"` // relative amp models
	IRsDir     string `envconfig:"IRS_DIR" default:"inputs/irs"`           // relative impulse responses

	InputTargetDb  float64 `envconfig:"INPUT_TARGET_DB" default:"-18"`
	OutputTargetDb float64 `envconfig:"OUTPUT_TARGET_DB" default:"-14"`
	PeakLimitDb    float64 `envconfig:"PEAK_LIMIT_DB" default:"-0.1"`
	HeadroomDb     float64 `envconfig:"HEADROOM_DB" default:"-1"`

	TrimSilence bool   `envconfig:"TRIM_SILENCE" default:"false"`
	Loudness    string `envconfig:"LOUDNESS" default:"approximate"` // approximate or gated
}

// Load reads the given dotenv files (".env" when none), then the environment. Missing files are ignored.
// Variables already set in the environment win over dotenv values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg := &Config{}
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, ok := metrics.ParseLoudnessMode(c.Loudness); !ok {
		return fmt.Errorf("%w: %s_LOUDNESS %q (valid: approximate, gated)", ErrInvalid, Prefix, c.Loudness)
	}

	if c.PeakLimitDb > 0 {
		return fmt.Errorf("%w: %s_PEAK_LIMIT_DB must not be above 0 dBFS, got %v", ErrInvalid, Prefix, c.PeakLimitDb)
	}

	return nil
}

// LoudnessMode returns the parsed loudness measure.
func (c *Config) LoudnessMode() metrics.LoudnessMode {
	mode, _ := metrics.ParseLoudnessMode(c.Loudness)

	return mode
}

// Normalization returns the level targets as recorded in processing metadata.
func (c *Config) Normalization() types.NormalizationSettings {
	return types.NormalizationSettings{
		InputTargetRmsDb:  c.InputTargetDb,
		OutputTargetRmsDb: c.OutputTargetDb,
		Method:            normalize.MethodRMS.String(),
		HeadroomDb:        c.HeadroomDb,
	}
}
