//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout/internal/audio"
	"github.com/farcloser/shootout/internal/metrics"
	"github.com/farcloser/shootout/internal/output"
)

var errNoFiles = errors.New("expected at least one file path")

func loudnessFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "loudness",
		Usage: "Integrated loudness measure: approximate, gated",
		Value: metrics.LoudnessApproximate.String(),
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Measure level, spectral and envelope metrics of audio files",
		ArgsUsage: "<file...>",
		Flags: []cli.Flag{
			loudnessFlag(),
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errNoFiles
			}

			opts := metrics.DefaultOptions()

			mode, ok := metrics.ParseLoudnessMode(cmd.String("loudness"))
			if !ok {
				return fmt.Errorf("unknown loudness measure %q", cmd.String("loudness"))
			}

			opts.Loudness = mode

			data := make([]*format.Data, 0, cmd.NArg())

			for _, path := range cmd.Args().Slice() {
				frames, info, err := audio.Load(ctx, path)
				if err != nil {
					return err
				}

				meta := output.MetricsToMap(metrics.ExtractFrames(frames, opts))
				meta["channels"] = info.Channels

				if info.BitDepth > 0 {
					meta["bit_depth"] = info.BitDepth
				}

				data = append(data, &format.Data{Object: path, Meta: meta})
			}

			return printAll(cmd.String("format"), data)
		},
	}
}
