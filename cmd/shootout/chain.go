//nolint:wrapcheck
package main

import (
	"context"
	"errors"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/shootout/internal/chain"
	"github.com/farcloser/shootout/internal/effects"
)

var errChainArgs = errors.New("expected exactly one argument: the chain text")

func chainCommand() *cli.Command {
	return &cli.Command{
		Name:  "chain",
		Usage: "Inspect signal chains and the built-in effect presets",
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse a chain and list its effects in order",
				ArgsUsage: "<[name=]type:value, type:value...>",
				Flags:     []cli.Flag{formatFlag()},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errChainArgs
					}

					sc, err := parseChainFlag(cmd.Args().First(), 0)
					if err != nil {
						return err
					}

					steps := make([]any, 0, sc.Len())
					for _, effect := range sc.Effects() {
						steps = append(steps, map[string]any{
							"type":     effect.Type.String(),
							"value":    effect.Value,
							"built_in": effects.BuiltIn(effect.Type),
						})
					}

					return printOne(cmd.String("format"), sc.Name, map[string]any{
						"chain":   sc.String(),
						"effects": steps,
						"models":  sc.AmpModels(),
						"irs":     sc.ImpulseResponses(),
					})
				},
			},
			{
				Name:  "presets",
				Usage: "List the preset names accepted by built-in effect types",
				Flags: []cli.Flag{formatFlag()},
				Action: func(_ context.Context, cmd *cli.Command) error {
					var data []*format.Data

					for _, t := range chain.EffectTypes {
						presets := effects.Presets(t)
						if len(presets) == 0 {
							continue
						}

						data = append(data, &format.Data{
							Object: t.String(),
							Meta:   map[string]any{"presets": presets},
						})
					}

					return printAll(cmd.String("format"), data)
				},
			},
		},
	}
}

