// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/cacheutil"
	"github.com/staranto/flavorcache/internal/provider"
)

// runnerEnv points every runner file and the local cache at temp dirs and
// returns the output and state file paths.
func runnerEnv(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("APPDATA", home)
	t.Setenv("FLAVORCACHE_CACHE_DIR", t.TempDir())
	unsetenv(t,
		"FLAVORCACHE_CFG", "FLAVORCACHE_CACHE", "FLAVORCACHE_STORE",
		"FLAVORCACHE_PATH", "FLAVORCACHE_PREFIX", "FLAVORCACHE_ROOT",
		"FLAVORCACHE_SIZE_LIMIT", "FLAVORCACHE_NAMESPACE", "FLAVORCACHE_TTL",
		"FLAVORCACHE_RESTORE_KEYS", "STATE_CACHE_KEY", "STATE_CACHE_RESULT",
		"FLAVORCACHE_S3_BUCKET", "FLAVORCACHE_S3_ENDPOINT", "FLAVORCACHE_S3_MAX_ATTEMPTS",
		"FLAVORCACHE_MINIO_ENDPOINT", "FLAVORCACHE_MINIO_BUCKET",
		"FLAVORCACHE_REDIS_ADDR", "FLAVORCACHE_MEMCACHE_SERVERS",
	)

	runner := t.TempDir()
	output := filepath.Join(runner, "output")
	state := filepath.Join(runner, "state")
	t.Setenv("GITHUB_SERVER_URL", "https://github.com")
	t.Setenv("GITHUB_REF", "refs/heads/main")
	t.Setenv("GITHUB_EVENT_NAME", "schedule")
	t.Setenv("GITHUB_REPOSITORY", "aaronsky/newcity")
	t.Setenv("GITHUB_ACTIONS", "false")
	t.Setenv("GITHUB_OUTPUT", output)
	t.Setenv("GITHUB_STATE", state)
	t.Setenv("RUNNER_TEMP", runner)
	return output, state
}

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := context.Background()
	args = append([]string{"flavorcache"}, args...)

	app, err := InitApp(ctx, args)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	err = app.Run(ctx, args)
	return out.String(), err
}

// captureLog collects log entries for the rest of the test.
func captureLog(t *testing.T) *memory.Handler {
	t.Helper()
	prev := log.Log.(*log.Logger).Handler
	h := memory.New()
	log.SetHandler(h)
	t.Cleanup(func() { log.SetHandler(prev) })
	return h
}

// messages returns the messages h collected at level.
func messages(h *memory.Handler, level log.Level) []string {
	var out []string
	for _, e := range h.Entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func workspace(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "newcity.json"), []byte(content), 0o600))
	}
	return root
}

func TestRestoreSave_RoundTrip(t *testing.T) {
	output, state := runnerEnv(t)
	key := actions.PrimaryKey(actions.DefaultKeyPrefix, time.Now())

	// First run of the week misses and records the key.
	first := workspace(t, `{"flavors":["vanilla"]}`)
	_, err := run(t, "restore", "--root", first)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "cache-hit<<ghadelimiter_")
	assert.Contains(t, readFile(t, output), "\nfalse\n")
	assert.Contains(t, readFile(t, state), "CACHE_KEY<<")
	assert.Contains(t, readFile(t, state), "\n"+key+"\n")

	_, err = run(t, "save", "--root", first)
	require.NoError(t, err)

	// A later run restores the entry.
	second := workspace(t, "")
	_, err = run(t, "restore", "--root", second)
	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "\ntrue\n")
	assert.Contains(t, readFile(t, state), "CACHE_RESULT<<")
	assert.Equal(t, `{"flavors":["vanilla"]}`, readFile(t, filepath.Join(second, "newcity.json")))

	// Saving after an exact hit is skipped, not a reserve error.
	_, err = run(t, "save", "--root", second)
	assert.NoError(t, err)
}

func TestRestore_FallsBackToRestoreKeys(t *testing.T) {
	runnerEnv(t)

	t.Setenv("STATE_CACHE_KEY", "flavors-0")
	_, err := run(t, "save", "--root", workspace(t, `{}`))
	require.NoError(t, err)
	unsetenv(t, "STATE_CACHE_KEY")

	root := workspace(t, "")
	_, err = run(t, "restore", "--root", root, "--restore-keys", "gelato-,flavors-")
	require.NoError(t, err)
	assert.Equal(t, `{}`, readFile(t, filepath.Join(root, "newcity.json")))
}

func TestRestore_GHES(t *testing.T) {
	output, state := runnerEnv(t)
	t.Setenv("GITHUB_SERVER_URL", "https://ghes.example.com")

	_, err := run(t, "restore", "--root", workspace(t, ""))
	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "\nfalse\n")
	assert.Empty(t, readFile(t, state))
}

func TestRestore_InvalidEvent(t *testing.T) {
	output, state := runnerEnv(t)
	t.Setenv("GITHUB_REF", "")

	_, err := run(t, "restore", "--root", workspace(t, ""))
	require.NoError(t, err)
	assert.Empty(t, readFile(t, output))
	assert.Empty(t, readFile(t, state))
}

func TestRestore_ValidationErrorFails(t *testing.T) {
	runnerEnv(t)

	_, err := run(t, "restore", "--root", workspace(t, ""), "--restore-keys", "a,b,c,d,e,f,g,h,i,j")
	require.Error(t, err)
	assert.True(t, provider.IsValidationError(err))
}

func TestSave_NoState(t *testing.T) {
	runnerEnv(t)

	_, err := run(t, "save", "--root", workspace(t, `{}`))
	assert.NoError(t, err)
}

func TestSave_NothingToSaveFails(t *testing.T) {
	runnerEnv(t)
	t.Setenv("STATE_CACHE_KEY", "flavors-1")

	_, err := run(t, "save", "--root", workspace(t, ""))
	require.Error(t, err)
	assert.True(t, provider.IsValidationError(err))
	assert.Contains(t, ErrorMessage(err), "do(es) not exist")
}

func TestSave_ReserveErrorIsNotFatal(t *testing.T) {
	runnerEnv(t)
	t.Setenv("STATE_CACHE_KEY", "flavors-2")
	root := workspace(t, `{}`)

	_, err := run(t, "save", "--root", root)
	require.NoError(t, err)
	_, err = run(t, "save", "--root", root)
	assert.NoError(t, err)
}

func TestKey(t *testing.T) {
	runnerEnv(t)

	out, err := run(t, "key", "--date", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "flavors-1\n", out)

	out, err = run(t, "key", "--prefix", "gelato", "--date", "2020-12-31")
	require.NoError(t, err)
	assert.Equal(t, "gelato-53\n", out)

	out, err = run(t, "key")
	require.NoError(t, err)
	assert.Equal(t, actions.PrimaryKey("flavors", time.Now())+"\n", out)

	_, err = run(t, "key", "--date", "yesterday")
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	runnerEnv(t)

	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _flavorcache flavorcache")

	out, err = run(t, "completion", "zsh")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#compdef flavorcache"))
}

func TestInitApp_Commands(t *testing.T) {
	runnerEnv(t)

	app, err := InitApp(context.Background(), []string{"flavorcache", "restore"})
	require.NoError(t, err)

	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"restore", "save", "extract", "key", "completion"}, names)

	m := GetMeta(app.Commands[0])
	assert.Equal(t, "aaronsky", m.Env.Owner())
	assert.Equal(t, "restore", m.Config.Namespace)
}

func TestConfigFileSuppliesFlags(t *testing.T) {
	runnerEnv(t)
	cfg := filepath.Join(t.TempDir(), "flavorcache.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("key:\n  prefix: sorbet\n"), 0o600))
	t.Setenv("FLAVORCACHE_CFG", cfg)

	out, err := run(t, "key", "--date", "2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, "sorbet-2\n", out)
}

func TestRestoreMiss_ClearsMatchedKey(t *testing.T) {
	output, _ := runnerEnv(t)
	key := actions.PrimaryKey(actions.DefaultKeyPrefix, time.Now())
	entries := []string{"entries"}

	_, err := run(t, "restore", "--root", workspace(t, ""))
	require.NoError(t, err)
	_, err = run(t, "save", "--root", workspace(t, `{"flavors":["vanilla"]}`))
	require.NoError(t, err)

	// The hit records the matched key.
	_, err = run(t, "restore", "--root", workspace(t, ""))
	require.NoError(t, err)
	require.Contains(t, readFile(t, output), "\ntrue\n")

	// The entry goes away before the next run, which misses.
	require.NoError(t, cacheutil.Remove(entries, key))
	require.NoError(t, os.WriteFile(output, nil, 0o600))
	_, err = run(t, "restore", "--root", workspace(t, ""))
	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "\nfalse\n")

	_, err = run(t, "save", "--root", workspace(t, `{"flavors":["mint"]}`))
	require.NoError(t, err)

	e, ok := cacheutil.Read(entries, key)
	require.True(t, ok, "save after a miss must write the entry")
	assert.NotEmpty(t, e.Data)
}

func TestStoreConfigErrorIsNotFatal(t *testing.T) {
	output, _ := runnerEnv(t)
	h := captureLog(t)

	_, err := run(t, "restore", "--root", workspace(t, ""), "--store", "s3")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, output), "\nfalse\n")
	assert.NotEmpty(t, messages(h, log.WarnLevel))

	t.Setenv("STATE_CACHE_KEY", "flavors-5")
	_, err = run(t, "save", "--root", workspace(t, `{}`), "--store", "s3")
	require.NoError(t, err)
	assert.Len(t, messages(h, log.WarnLevel), 2)
}

func TestSave_SkipsAndWarnings(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		content string
		warn    string
		info    string
		saved   string
	}{
		{
			name: "GHES",
			env: map[string]string{
				"GITHUB_SERVER_URL": "https://ghes.example.com",
				"STATE_CACHE_KEY":   "flavors-3",
			},
			content: `{}`,
			warn:    "Cache action is not supported on GHES",
		},
		{
			name: "event without a ref",
			env: map[string]string{
				"GITHUB_REF":      "",
				"STATE_CACHE_KEY": "flavors-4",
			},
			content: `{}`,
			warn:    "Event Validation Error",
		},
		{
			name:    "matched key only",
			env:     map[string]string{"STATE_CACHE_RESULT": "flavors-6"},
			content: `{}`,
			info:    "Cache hit occurred on the primary key flavors-6, not saving cache.",
		},
		{
			name:    "invalid JSON",
			env:     map[string]string{"STATE_CACHE_KEY": "flavors-7"},
			content: `{"flavors":`,
			warn:    "newcity.json does not contain valid JSON",
			saved:   "flavors-7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runnerEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			h := captureLog(t)

			_, err := run(t, "save", "--root", workspace(t, tt.content))
			require.NoError(t, err)

			warnings := messages(h, log.WarnLevel)
			if tt.warn != "" {
				require.NotEmpty(t, warnings)
				assert.Contains(t, warnings[0], tt.warn)
			} else {
				assert.Empty(t, warnings)
			}
			if tt.info != "" {
				assert.Contains(t, messages(h, log.InfoLevel), tt.info)
			}

			for _, key := range []string{"flavors-3", "flavors-4", "flavors-6", "flavors-7"} {
				_, ok := cacheutil.Read([]string{"entries"}, key)
				assert.Equal(t, key == tt.saved, ok, key)
			}
		})
	}
}
