// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"
	"time"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// Env is the runner environment captured at startup.
	Env         actions.Env
	StartingDir string
	// Now is the clock used to compute the weekly key.
	Now func() time.Time
}

// Clock returns m.Now, or time.Now when unset.
func (m Meta) Clock() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
