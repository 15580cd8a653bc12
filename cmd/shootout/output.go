//nolint:wrapcheck
package main

import (
	"os"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: console, json, markdown",
		Value:   "console",
	}
}

func printAll(formatName string, data []*format.Data) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	return formatter.PrintAll(data, os.Stdout)
}

func printOne(formatName, object string, meta map[string]any) error {
	return printAll(formatName, []*format.Data{{Object: object, Meta: meta}})
}
