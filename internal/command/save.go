// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/meta"
	"github.com/staranto/flavorcache/internal/provider"
)

// SaveCommandAction is the action handler for the "save" subcommand. It
// stores the workspace paths under the key the restore step recorded, unless
// restore already hit that exact key.
func SaveCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	r := newRunner(cmd, m)

	if m.Env.IsGHES() {
		actions.LogWarning("Cache action is not supported on GHES")
		return nil
	}

	if !m.Env.IsValidEvent() {
		actions.LogWarning(fmt.Sprintf(
			"Event Validation Error: The event type %s is not supported because it's not tied to a branch or tag ref.",
			m.Env.EventName))
		return nil
	}

	matchedKey := r.GetState(actions.StateMatchedKey)
	key := r.GetState(actions.StatePrimaryKey)
	if key == "" {
		key = matchedKey
	}
	if key == "" {
		actions.LogWarning("Error retrieving key from state.")
		return nil
	}

	if matchedKey == key {
		log.Infof("Cache hit occurred on the primary key %s, not saving cache.", key)
		return nil
	}

	p, err := buildProvider(ctx, cmd)
	if err != nil {
		return saveFailed(err)
	}

	paths := splitPaths(cmd)
	warnInvalidJSON(p.Root(), paths)

	if err := p.Save(ctx, paths, key); err != nil {
		return saveFailed(err)
	}

	return nil
}

// saveFailed fails the step on bad input. A lost reserve race is routine and
// anything else is only a warning.
func saveFailed(err error) error {
	switch {
	case provider.IsValidationError(err):
		return err
	case provider.IsReserveError(err):
		log.Info(ErrorMessage(err))
	default:
		actions.LogWarning(ErrorMessage(err))
	}
	return nil
}

// warnInvalidJSON warns about .json paths whose content does not parse. The
// entry is still saved.
func warnInvalidJSON(root string, paths []string) {
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".json") || strings.ContainsAny(p, "*?[") {
			continue
		}
		full := p
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, p)
		}
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		if !gjson.ValidBytes(data) {
			actions.LogWarning(fmt.Sprintf("%s does not contain valid JSON", p))
		}
	}
}

func SaveCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "save",
		Usage:     "save the workspace paths under the key restore recorded",
		UsageText: `flavorcache save [options]`,
		Flags:     append(NewCacheFlags("save", meta.Config.Source), NewStoreFlags("save", meta.Config.Source)...),
		Action:    SaveCommandAction,
		Meta:      meta,
	}).Build()
}
