//nolint:wrapcheck
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout"
	"github.com/farcloser/shootout/internal/output"
)

//nolint:gochecknoglobals // effectively const
var checkNames = map[string]shootout.Check{
	"clipping":        shootout.CheckClipping,
	"dc-offset":       shootout.CheckDCOffset,
	"silence-padding": shootout.CheckSilencePadding,
	"truncation":      shootout.CheckTruncation,
	"dropouts":        shootout.CheckDropouts,
	"all":             shootout.ChecksAll,
}

//nolint:gochecknoglobals // effectively const
var audioExtensions = []string{".wav", ".flac", ".aif", ".aiff", ".m4a"}

func parseChecks(raw string) (shootout.Check, error) {
	var result shootout.Check

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		check, ok := checkNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown check %q", name)
		}

		result |= check
	}

	if result == 0 {
		return shootout.ChecksAll, nil
	}

	return result, nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check DI recordings for clipping, DC offset, silence padding, truncation and dropouts",
		ArgsUsage: "<file | folder...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "checks",
				Aliases: []string{"C"},
				Usage:   "Comma-separated checks: all, clipping, dc-offset, silence-padding, truncation, dropouts",
				Value:   "all",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			formatFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errNoFiles
			}

			checks, err := parseChecks(cmd.String("checks"))
			if err != nil {
				return err
			}

			files, err := collectAudioFiles(cmd.Args().Slice())
			if err != nil {
				return err
			}

			opts := shootout.DefaultValidateOptions()
			opts.Checks = checks

			data, failed := validateFiles(ctx, files, opts, max(cmd.Int("workers"), 1))

			if err = printAll(cmd.String("format"), data); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be validated", failed, len(files))
			}

			return nil
		},
	}
}

// validateFiles runs the checks concurrently and returns the results in file order.
func validateFiles(ctx context.Context, files []string, opts shootout.ValidateOptions, workers int) ([]*format.Data, int) {
	data := make([]*format.Data, len(files))
	errs := make([]error, len(files))
	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Go(func() {
			sem <- struct{}{}

			defer func() { <-sem }()

			report, err := shootout.ValidateDITrack(ctx, filePath, opts)
			if err != nil {
				errs[idx] = err

				return
			}

			data[idx] = &format.Data{Object: filePath, Meta: output.ReportToMap(report)}
		})
	}

	waitGroup.Wait()

	failed := 0
	result := make([]*format.Data, 0, len(files))

	for idx, err := range errs {
		if err != nil {
			failed++

			slog.Error("validation failed", "file", files[idx], "error", err)

			result = append(result, &format.Data{Object: files[idx], Meta: map[string]any{"error": err.Error()}})

			continue
		}

		result = append(result, data[idx])
	}

	return result, failed
}

// collectAudioFiles expands folders into the audio files they contain. Plain file arguments are kept as given.
func collectAudioFiles(paths []string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}

		if !info.IsDir() {
			files = append(files, root)

			continue
		}

		var found []string

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
				found = append(found, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}

		slices.Sort(found)
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, errNoFiles
	}

	return files, nil
}
