//nolint:wrapcheck
package main

import (
	"context"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout/internal/provenance"
)

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Print the SHA-256 of input files, as recorded in processing metadata",
		ArgsUsage: "<file...>",
		Flags:     []cli.Flag{formatFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errNoFiles
			}

			data := make([]*format.Data, 0, cmd.NArg())

			for _, path := range cmd.Args().Slice() {
				sum, err := provenance.HashFile(path)
				if err != nil {
					return err
				}

				data = append(data, &format.Data{Object: path, Meta: map[string]any{"sha256": sum}})
			}

			return printAll(cmd.String("format"), data)
		},
	}
}
