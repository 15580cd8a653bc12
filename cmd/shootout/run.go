//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout"
	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/config"
	"github.com/farcloser/shootout/internal/output"
)

var (
	errNoDITracks = errors.New("at least one --di track is required")
	errNoChains   = errors.New("at least one --chain is required")
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Render every DI track through every signal chain and measure the results",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "di",
				Aliases: []string{"i"},
				Usage:   "DI track to render (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "chain",
				Aliases: []string{"c"},
				Usage:   "Signal chain as [name=]type:value, type:value... (repeatable)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Comparison name, also the stem of rendered files",
				Value: "shootout",
			},
			&cli.StringFlag{
				Name:  "author",
				Usage: "Comparison author",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Comparison description",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Dotenv file to load settings from (default: .env)",
			},
			&cli.StringFlag{
				Name:  "models-dir",
				Usage: "Directory relative amp model paths are resolved against",
			},
			&cli.StringFlag{
				Name:  "irs-dir",
				Usage: "Directory relative impulse response paths are resolved against",
			},
			&cli.FloatFlag{
				Name:  "input-target-db",
				Usage: "RMS level DI tracks are brought to before the chain",
			},
			&cli.FloatFlag{
				Name:  "output-target-db",
				Usage: "RMS level rendered segments are brought to after the chain",
			},
			&cli.BoolFlag{
				Name:  "trim-silence",
				Usage: "Cut leading and trailing silence from DI tracks",
			},
			loudnessFlag(),
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Write one WAV file per segment to this directory",
			},
			&cli.IntFlag{
				Name:  "bit-depth",
				Usage: "Bit depth of rendered files (16, 24, or 32)",
				Value: 24,
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write a JSONL report (and a gzipped copy) to this path",
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			comp, err := comparisonFromFlags(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := shootout.OptionsFromConfig(cfg)
			opts.OutputDir = cmd.String("output-dir")
			opts.OutputBitDepth = cmd.Int("bit-depth")

			reportPath := cmd.String("report")

			var report *reportWriter

			if reportPath != "" {
				report, err = newReportWriter(reportPath, comp.Meta.Name)
				if err != nil {
					return err
				}
				defer report.Close()

				opts.OnSegment = report.segment
			}

			result, err := shootout.New(cfg, opts).Run(ctx, comp)
			if err != nil {
				return err
			}

			if report != nil {
				if err = report.finish(result); err != nil {
					return err
				}

				fmt.Fprintf(os.Stderr, "Report written to %s (and %s.gz)\n", reportPath, reportPath)
			}

			return printAll(cmd.String("format"), resultData(result))
		},
	}
}

func comparisonFromFlags(cmd *cli.Command) (*shootout.Comparison, error) {
	comp := &shootout.Comparison{
		Meta: shootout.Meta{
			Name:        cmd.String("name"),
			Author:      cmd.String("author"),
			Description: cmd.String("description"),
		},
	}

	for _, path := range cmd.StringSlice("di") {
		comp.DITracks = append(comp.DITracks, shootout.DITrack{Path: path})
	}

	if len(comp.DITracks) == 0 {
		return nil, errNoDITracks
	}

	for i, raw := range cmd.StringSlice("chain") {
		sc, err := parseChainFlag(raw, i)
		if err != nil {
			return nil, err
		}

		comp.Chains = append(comp.Chains, sc)
	}

	if len(comp.Chains) == 0 {
		return nil, errNoChains
	}

	return comp, nil
}

// parseChainFlag splits an optional "name=" prefix off a chain. A prefix holding a colon is part of an effect.
func parseChainFlag(raw string, index int) (*chain.SignalChain, error) {
	name := fmt.Sprintf("chain %d", index+1)
	text := raw

	if prefix, rest, found := strings.Cut(raw, "="); found && !strings.Contains(prefix, ":") {
		name = strings.TrimSpace(prefix)
		text = rest
	}

	return chain.New(name, "", text)
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("models-dir") {
		cfg.ModelsDir = cmd.String("models-dir")
	}

	if cmd.IsSet("irs-dir") {
		cfg.IRsDir = cmd.String("irs-dir")
	}

	if cmd.IsSet("input-target-db") {
		cfg.InputTargetDb = cmd.Float("input-target-db")
	}

	if cmd.IsSet("output-target-db") {
		cfg.OutputTargetDb = cmd.Float("output-target-db")
	}

	if cmd.IsSet("trim-silence") {
		cfg.TrimSilence = cmd.Bool("trim-silence")
	}

	if cmd.IsSet("loudness") {
		cfg.Loudness = cmd.String("loudness")
	}

	return cfg, cfg.Validate()
}

func resultData(result *shootout.Result) []*format.Data {
	data := make([]*format.Data, 0, len(result.Segments)+1)

	for _, seg := range result.Segments {
		meta := output.SegmentToMap(seg)
		delete(meta, "timestamps")

		meta["start_ms"] = seg.Timestamps.StartMs
		meta["end_ms"] = seg.Timestamps.EndMs

		data = append(data, &format.Data{
			Object: fmt.Sprintf("#%d %s / %s", seg.Position, seg.Chain, seg.DITrack),
			Meta:   meta,
		})
	}

	return append(data, &format.Data{Object: result.Meta.Name, Meta: output.MetadataToMap(result.Metadata)})
}

// reportWriter streams segment records as they complete.
type reportWriter struct {
	path       string
	comparison string
	file       *os.File
	enc        *json.Encoder
}

func newReportWriter(path, comparison string) (*reportWriter, error) {
	file, err := os.Create(path) //nolint:gosec // report path is user-provided
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}

	return &reportWriter{path: path, comparison: comparison, file: file, enc: json.NewEncoder(file)}, nil
}

func (w *reportWriter) segment(seg shootout.SegmentResult) {
	if err := w.enc.Encode(Record{Comparison: w.comparison, Segment: output.SegmentToMap(seg)}); err != nil {
		slog.Error("writing record", "position", seg.Position, "error", err)
	}
}

func (w *reportWriter) finish(result *shootout.Result) error {
	if err := w.enc.Encode(Record{Comparison: w.comparison, Metadata: output.MetadataToMap(result.Metadata)}); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}

	if err := compressFile(w.path); err != nil {
		slog.Error("compressing report", "error", err)
	}

	return nil
}

func (w *reportWriter) Close() {
	_ = w.file.Close()
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz") //nolint:gosec // next to our own output file
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}
