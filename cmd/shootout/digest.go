package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout/internal/metrics"
	"github.com/farcloser/shootout/internal/types"
)

var errNoSegments = errors.New("report holds no segments")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Summarize a shootout JSONL report, comparing every chain to a baseline",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "baseline",
				Usage: "Chain the others are compared to (default: the first chain in the report)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: path to report.jsonl")
			}

			return runDigest(os.Stdout, cmd.Args().First(), cmd.String("baseline"))
		},
	}
}

func runDigest(out io.Writer, reportPath, baseline string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	return printDigest(out, records, baseline)
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 0, maxLineSize), maxLineSize)

	line := 0

	for scanner.Scan() {
		line++

		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("report line %d: %w", line, err)
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

// chainSummary accumulates one chain's segments.
type chainSummary struct {
	name     string
	segments int
	rms      float64
	lufs     float64
	centroid float64
	crest    float64
	deltas   map[string][]float64
}

func printDigest(out io.Writer, records []digestRecord, baseline string) error {
	var (
		chains   []*chainSummary
		meta     *digestMetadata
		name     string
		diTracks []string
	)

	byName := map[string]*chainSummary{}
	byTrack := map[string]map[string]types.AudioMetrics{} // DI track, then chain

	for _, rec := range records {
		if rec.Metadata != nil {
			meta = rec.Metadata
		}

		if rec.Comparison != "" {
			name = rec.Comparison
		}

		seg := rec.Segment
		if seg == nil {
			continue
		}

		summary, ok := byName[seg.Chain]
		if !ok {
			summary = &chainSummary{name: seg.Chain, deltas: map[string][]float64{}}
			byName[seg.Chain] = summary
			chains = append(chains, summary)
		}

		m := seg.Metrics.audioMetrics()

		summary.segments++
		summary.rms += m.Core.RmsDbfs
		summary.lufs += m.Advanced.LufsIntegrated
		summary.centroid += m.Spectral.SpectralCentroidHz
		summary.crest += m.Core.CrestFactorDb

		if _, ok := byTrack[seg.DITrack]; !ok {
			byTrack[seg.DITrack] = map[string]types.AudioMetrics{}
			diTracks = append(diTracks, seg.DITrack)
		}

		byTrack[seg.DITrack][seg.Chain] = m
	}

	if len(chains) == 0 {
		return errNoSegments
	}

	if baseline == "" {
		baseline = chains[0].name
	}

	if _, ok := byName[baseline]; !ok {
		return fmt.Errorf("baseline chain %q not in report", baseline)
	}

	for _, track := range diTracks {
		reference, ok := byTrack[track][baseline]
		if !ok {
			continue
		}

		for chainName, m := range byTrack[track] {
			for key, delta := range metrics.Compare(m, reference) {
				if math.IsNaN(delta) || math.IsInf(delta, 0) {
					continue
				}

				byName[chainName].deltas[key] = append(byName[chainName].deltas[key], delta)
			}
		}
	}

	fmt.Fprintln(out, "=== Shootout Report Digest ===")
	fmt.Fprintln(out)

	if name != "" {
		fmt.Fprintf(out, "Comparison:  %s\n", name)
	}

	fmt.Fprintf(out, "Chains:      %d\n", len(chains))
	fmt.Fprintf(out, "DI tracks:   %d\n", len(diTracks))

	if meta != nil {
		fmt.Fprintf(out, "Segments:    %d (%.1fs)\n", meta.SegmentCount, float64(meta.TotalDurationMs)/1000)
		fmt.Fprintf(out, "Processed:   %s in %.1fs\n", meta.ProcessedAt, meta.ProcessingS)

		if meta.Versions.AmpRuntime != "" {
			fmt.Fprintf(out, "Amp runtime: %s\n", meta.Versions.AmpRuntime)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Chains (mean over DI tracks) ---")

	for _, summary := range chains {
		count := float64(summary.segments)

		fmt.Fprintf(out, "  %s\n", summary.name)
		fmt.Fprintf(out, "    rms: %.1f dBFS  lufs: %.1f  crest: %.1f dB  centroid: %.0f Hz\n",
			summary.rms/count, summary.lufs/count, summary.crest/count, summary.centroid/count)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "--- Differences vs %s ---\n", baseline)

	for _, summary := range chains {
		if summary.name == baseline {
			continue
		}

		fmt.Fprintf(out, "  %s\n", summary.name)

		for _, key := range slices.Sorted(maps.Keys(summary.deltas)) {
			values := summary.deltas[key]

			var sum float64
			for _, v := range values {
				sum += v
			}

			fmt.Fprintf(out, "    %s: %+.2f\n", key, sum/float64(len(values)))
		}
	}

	return nil
}
