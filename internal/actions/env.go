// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	// RefKey names the variable that ties a run to a branch or tag.
	RefKey = "GITHUB_REF"
	// EventKey names the variable holding the triggering event.
	EventKey = "GITHUB_EVENT_NAME"

	publicHost = "GITHUB.COM"
)

// Env is the subset of the runner environment the cache steps care about.
type Env struct {
	ServerURL  string `env:"GITHUB_SERVER_URL" envDefault:"https://github.com"`
	APIURL     string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	Ref        string `env:"GITHUB_REF"`
	EventName  string `env:"GITHUB_EVENT_NAME"`
	Repository string `env:"GITHUB_REPOSITORY"`
	OutputPath string `env:"GITHUB_OUTPUT"`
	StatePath  string `env:"GITHUB_STATE"`
	Workspace  string `env:"GITHUB_WORKSPACE"`
	RunnerTemp string `env:"RUNNER_TEMP"`
	Actions    bool   `env:"GITHUB_ACTIONS"`
}

// LoadEnv parses the process environment into an Env.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// IsGHES reports whether the run is hosted on GitHub Enterprise Server, where
// the hosted cache service does not exist. An unparsable server URL is
// treated as self-hosted.
func (e Env) IsGHES() bool {
	u, err := url.Parse(e.ServerURL)
	if err != nil {
		return true
	}
	return strings.ToUpper(u.Hostname()) != publicHost
}

// IsValidEvent reports whether the triggering event is tied to a ref. The
// cache token is only authorized for those events.
func (e Env) IsValidEvent() bool {
	return e.Ref != ""
}

// Owner returns the owner half of GITHUB_REPOSITORY.
func (e Env) Owner() string {
	owner, _, _ := strings.Cut(e.Repository, "/")
	return owner
}

// Repo returns the repository half of GITHUB_REPOSITORY.
func (e Env) Repo() string {
	_, repo, _ := strings.Cut(e.Repository, "/")
	return repo
}
