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
	"github.com/staranto/flavorcache/internal/config"
	"github.com/staranto/flavorcache/internal/meta"
	"github.com/staranto/flavorcache/internal/provider"
)

// RestoreCommandAction is the action handler for the "restore" subcommand.
// It computes this week's key, remembers it for the save step and restores
// the newest matching entry into the workspace.
func RestoreCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	r := newRunner(cmd, m)

	if m.Env.IsGHES() {
		actions.LogWarning("Cache action is not supported on GHES")
		r.SetCacheHitOutput(false)
		return nil
	}

	if !m.Env.IsValidEvent() {
		actions.LogWarning(fmt.Sprintf(
			"Event Validation Error: The event type %s is not supported because it's not tied to a branch or tag ref.",
			m.Env.EventName))
		return nil
	}

	primaryKey := actions.PrimaryKey(cmd.String("prefix"), m.Clock())
	if err := r.SaveState(actions.StatePrimaryKey, primaryKey); err != nil {
		log.WithError(err).Warnf("failed to save %s state", actions.StatePrimaryKey)
	}
	// A matched key left by an earlier run must not make save skip this one.
	r.SetCacheState("")
	restoreKeys := restoreKeysFrom(cmd)
	log.Debugf("primary key: %s, restore keys: %v", primaryKey, restoreKeys)

	p, err := buildProvider(ctx, cmd)
	if err != nil {
		return restoreFailed(r, err)
	}

	matched, err := p.Restore(ctx, splitPaths(cmd), primaryKey, restoreKeys...)
	if err != nil {
		return restoreFailed(r, err)
	}

	if matched == "" {
		log.Infof("Cache not found for input keys: %s",
			strings.Join(append([]string{primaryKey}, restoreKeys...), ", "))
		r.SetCacheHitOutput(false)
		return nil
	}

	r.SetCacheState(matched)
	r.SetCacheHitOutput(true)
	log.Infof("Cache restored from key: %s", matched)

	return nil
}

// restoreFailed fails the step on bad input and otherwise downgrades err to
// a warning and a miss.
func restoreFailed(r *actions.Runner, err error) error {
	if provider.IsValidationError(err) {
		return err
	}
	actions.LogWarning(ErrorMessage(err))
	r.SetCacheHitOutput(false)
	return nil
}

// restoreKeysFrom returns --restore-keys, else the restore_keys config list.
func restoreKeysFrom(cmd *cli.Command) []string {
	if v := cmd.String("restore-keys"); v != "" {
		return splitList(v)
	}
	keys, err := config.GetStringSlice("restore_keys")
	if err != nil {
		return nil
	}
	return keys
}

func RestoreCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append(NewCacheFlags("restore", meta.Config.Source), NewStoreFlags("restore", meta.Config.Source)...)
	flags = append(flags, &cli.StringFlag{
		Name:    "restore-keys",
		Aliases: []string{"r"},
		Usage:   "ordered key prefixes to try when the weekly key misses",
		Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_RESTORE_KEYS")),
	})

	return (&CommandBuilder{
		Name:      "restore",
		Usage:     "restore this week's cache entry",
		UsageText: `flavorcache restore [options]`,
		Flags:     flags,
		Action:    RestoreCommandAction,
		Meta:      meta,
	}).Build()
}
