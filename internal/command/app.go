// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/jmgilman/go/errors"
	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/config"
	"github.com/staranto/flavorcache/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the subcommand
	// and also represents the namespace key to be used when retrieving config
	// values. arg[1] could be -h/--help, so ignore it if it appears to be a
	// flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	switch {
	case errors.GetCode(err) == errors.CodeNotFound:
		log.Debugf("no config: %v", err)
	case err != nil:
		log.WithError(err).Warn("ignoring config file")
	}
	if err != nil {
		cfg = config.Type{Namespace: ns}
		config.Config = cfg
	}

	env, err := actions.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read runner environment: %w", err)
	}

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		Env:         env,
		StartingDir: sd,
		Now:         time.Now,
	}

	app := &cli.Command{
		Name:  "flavorcache",
		Usage: "weekly cache for the flavors artifact",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "flavorcache version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		RestoreCommandBuilder(meta),
		SaveCommandBuilder(meta),
		ExtractCommandBuilder(meta),
		KeyCommandBuilder(meta),
		CompletionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
