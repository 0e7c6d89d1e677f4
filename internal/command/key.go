// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/meta"
)

// KeyCommandAction prints the key restore would use, for today or --date.
func KeyCommandAction(_ context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	when := m.Clock()
	if d := cmd.String("date"); d != "" {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", d, err)
		}
		when = t
	}

	fmt.Fprintln(cmd.Root().Writer, actions.PrimaryKey(cmd.String("prefix"), when))
	return nil
}

func KeyCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "key",
		Usage:     "print the weekly cache key",
		UsageText: `flavorcache key [--date YYYY-MM-DD] [--prefix PREFIX]`,
		Flags: []cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("key", meta.Config.Source, &cli.StringFlag{
				Name:    "prefix",
				Usage:   "cache key prefix",
				Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_PREFIX")),
				Value:   actions.DefaultKeyPrefix,
				Validator: func(value string) error {
					return FlagValidators(value, KeyPrefixValidator)
				},
			}),
			&cli.StringFlag{
				Name:    "date",
				Aliases: []string{"d"},
				Usage:   "compute the key for this date instead of today",
			},
			tldrFlag,
		},
		Action: KeyCommandAction,
		Meta:   meta,
	}).Build()
}
