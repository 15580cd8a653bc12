//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout/internal/output"
	"github.com/farcloser/shootout/internal/preset"
	"github.com/farcloser/shootout/internal/provenance"
)

var (
	errPresetBuildArgs   = errors.New("expected exactly one argument: path to the .nam model")
	errPresetInspectArgs = errors.New("expected exactly one argument: path to the preset file")
)

func presetCommand() *cli.Command {
	return &cli.Command{
		Name:  "preset",
		Usage: "Build and inspect Neural Amp Modeler plugin presets",
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Write a plugin preset that loads a model",
				ArgsUsage: "<model.nam>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Preset file to write",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "ir",
						Usage: "Impulse response loaded by the plugin itself",
					},
					&cli.StringFlag{
						Name:  "plugin-version",
						Usage: "Plugin version recorded in the preset",
						Value: preset.NAMVersion,
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errPresetBuildArgs
					}

					opts := preset.DefaultOptions()
					opts.IRPath = cmd.String("ir")
					opts.Version = cmd.String("plugin-version")

					data, err := preset.ForModel(cmd.Args().First(), opts)
					if err != nil {
						return err
					}

					if err = os.WriteFile(cmd.String("output"), data, 0o600); err != nil {
						return fmt.Errorf("writing preset: %w", err)
					}

					fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s (sha256 %s)\n",
						len(data), cmd.String("output"), provenance.HashBytes(data))

					return nil
				},
			},
			{
				Name:      "inspect",
				Usage:     "Decode a plugin preset",
				ArgsUsage: "<preset>",
				Flags:     []cli.Flag{formatFlag()},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errPresetInspectArgs
					}

					path := cmd.Args().First()

					data, err := os.ReadFile(path) //nolint:gosec // CLI tool opens user-specified presets
					if err != nil {
						return fmt.Errorf("reading preset: %w", err)
					}

					decoded, err := preset.Decode(data)
					if err != nil {
						return err
					}

					return printOne(cmd.String("format"), path, output.PresetToMap(decoded))
				},
			},
		},
	}
}
