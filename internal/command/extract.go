// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/github"
	"github.com/staranto/flavorcache/internal/meta"
)

const (
	defaultOwner = "aaronsky"
	defaultRepo  = "newcity"
)

// ExtractCommandAction is the action handler for the "extract" subcommand.
// It finds the workflow artifact named --key and writes its --path member to
// --dest.
func ExtractCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	key := cmd.String("key")
	if key == "" {
		key = actions.PrimaryKey(cmd.String("prefix"), m.Clock())
	}

	client, err := github.NewClient(ctx, cmd.String("token"), m.Env.APIURL)
	if err != nil {
		return err
	}

	owner, repo := cmd.String("owner"), cmd.String("repo")
	log.Debugf("looking for artifact %s in %s/%s", key, owner, repo)

	artifact, err := client.ArtifactMatching(ctx, owner, repo, key)
	if err != nil {
		return err
	}

	files, err := client.WriteArtifactToPath(ctx, owner, repo, artifact, cmd.String("path"), cmd.String("dest"))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, "Extracted:\n"+strings.Join(files, "\n"))
	return nil
}

func ExtractCommandBuilder(meta meta.Meta) *cli.Command {
	owner, repo := meta.Env.Owner(), meta.Env.Repo()
	if owner == "" || repo == "" {
		owner, repo = defaultOwner, defaultRepo
	}
	src := meta.Config.Source

	return (&CommandBuilder{
		Name:      "extract",
		Usage:     "extract a file from a workflow artifact",
		UsageText: `flavorcache extract [--key KEY] [--path FILE] [options]`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "artifact name, defaults to this week's key",
			},
			NameSpacedValueChainFlagFromConfigFile("extract", src, &cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "archive member to extract",
				Value:   defaultPath,
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			}),
			NameSpacedValueChainFlagFromConfigFile("extract", src, &cli.StringFlag{
				Name:    "prefix",
				Usage:   "cache key prefix used when --key is not given",
				Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_PREFIX")),
				Value:   actions.DefaultKeyPrefix,
			}),
			&cli.StringFlag{
				Name:  "dest",
				Usage: "directory to extract into",
				Value: ".",
			},
			NameSpacedValueChainFlagFromConfigFile("extract", src, &cli.StringFlag{
				Name:  "owner",
				Usage: "user or organization owning the repository",
				Value: owner,
			}),
			NameSpacedValueChainFlagFromConfigFile("extract", src, &cli.StringFlag{
				Name:  "repo",
				Usage: "repository to search for artifacts",
				Value: repo,
			}),
			&cli.StringFlag{
				Name:        "token",
				Usage:       "GitHub token",
				Sources:     cli.NewValueSourceChain(cli.EnvVar("GITHUB_TOKEN")),
				HideDefault: true,
			},
			tldrFlag,
		},
		Action: ExtractCommandAction,
		Meta:   meta,
	}).Build()
}
