// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// OutputCacheHit is the step output telling later steps whether the
	// restore found an entry.
	OutputCacheHit = "cache-hit"
	// StateMatchedKey holds the key an entry was restored from.
	StateMatchedKey = "CACHE_RESULT"
	// StatePrimaryKey holds the key the restore step computed.
	StatePrimaryKey = "CACHE_KEY"

	stateFileName = "flavorcache-state.yaml"
)

// Runner writes outputs and state back to the CI runner. Commands that are
// not running under a runner fall back to the legacy stdout workflow
// commands, and state always lands in a local file as well so a separate
// invocation of the tool later in the job can read it.
type Runner struct {
	Env Env
	// Stdout receives legacy workflow commands.
	Stdout io.Writer
	// StateDir holds the local state file. Empty disables it.
	StateDir string

	mu sync.Mutex
}

// NewRunner returns a Runner for e. The local state file lives in
// RUNNER_TEMP when set, else in stateDir.
func NewRunner(e Env, stateDir string) *Runner {
	if e.RunnerTemp != "" {
		stateDir = e.RunnerTemp
	}
	return &Runner{Env: e, Stdout: os.Stdout, StateDir: stateDir}
}

// SetOutput publishes a step output.
func (r *Runner) SetOutput(name, value string) error {
	if r.Env.OutputPath == "" {
		_, err := fmt.Fprintf(r.Stdout, "::set-output name=%s::%s\n", name, escapeData(value))
		return err
	}
	return appendFileCommand(r.Env.OutputPath, name, value)
}

// SetCacheHitOutput publishes the cache-hit output.
func (r *Runner) SetCacheHitOutput(hit bool) {
	if err := r.SetOutput(OutputCacheHit, fmt.Sprintf("%t", hit)); err != nil {
		log.WithError(err).Warnf("failed to set %s output", OutputCacheHit)
	}
}

// SaveState records name=value for a later step.
func (r *Runner) SaveState(name, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Env.StatePath != "" {
		if err := appendFileCommand(r.Env.StatePath, name, value); err != nil {
			return err
		}
	}

	if r.StateDir == "" {
		return nil
	}

	state, err := r.readStateFile()
	if err != nil {
		return err
	}
	state[name] = value

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.MkdirAll(r.StateDir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(r.statePath(), data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// GetState returns a value saved by SaveState, or "" if there is none. The
// runner-provided STATE_<name> variable takes precedence over the local file.
func (r *Runner) GetState(name string) string {
	if v := os.Getenv("STATE_" + name); v != "" {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.StateDir == "" {
		return ""
	}
	state, err := r.readStateFile()
	if err != nil {
		log.WithError(err).Debug("failed to read local state")
		return ""
	}
	return state[name]
}

// SetCacheState records the key an entry was restored from.
func (r *Runner) SetCacheState(key string) {
	if err := r.SaveState(StateMatchedKey, key); err != nil {
		log.WithError(err).Warnf("failed to save %s state", StateMatchedKey)
	}
}

// LogWarning logs at warning level, which renders as [warning]msg under a
// runner.
func LogWarning(message string) {
	log.Warn(message)
}

func (r *Runner) statePath() string {
	return filepath.Join(r.StateDir, stateFileName)
}

func (r *Runner) readStateFile() (map[string]string, error) {
	state := map[string]string{}
	data, err := os.ReadFile(r.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if state == nil {
		state = map[string]string{}
	}
	return state, nil
}

// appendFileCommand appends a heredoc-style entry to a runner command file.
func appendFileCommand(path, name, value string) error {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("unexpected input: name or value contains delimiter %s", delimiter)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:mnd
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// escapeData escapes a value for a legacy workflow command.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}
