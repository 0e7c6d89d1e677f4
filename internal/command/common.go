// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
	"github.com/staranto/flavorcache/internal/cacheutil"
	"github.com/staranto/flavorcache/internal/config"
	"github.com/staranto/flavorcache/internal/meta"
	"github.com/staranto/flavorcache/internal/provider"
	"github.com/staranto/flavorcache/internal/store/memcache"
	"github.com/staranto/flavorcache/internal/store/minio"
	"github.com/staranto/flavorcache/internal/store/redis"
	"github.com/staranto/flavorcache/internal/store/s3"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr flavorcache <subcmd>` and returns true so the caller can exit
// early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "flavorcache", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// CommandBuilder constructs a cli.Command for the cache subcommands using a
// consistent pattern. The builder wires metadata and a debug trace around the
// action.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: cb.Flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			m := GetMeta(c)
			if len(m.Args) > 1 {
				log.Debugf("Executing action for %v", m.Args[1:])
			}
			if ShortCircuitTLDR(ctx, c, cb.Name) {
				return nil
			}
			return cb.Action(ctx, c)
		},
	}
}

// storeConfig collects the store flags into a provider.Config.
func storeConfig(cmd *cli.Command) provider.Config {
	return provider.Config{
		Kind:   cmd.String("store"),
		Prefix: cmd.String("namespace"),
		TTL:    cmd.Duration("ttl"),
		S3: s3.Config{
			Bucket:      cmd.String("s3-bucket"),
			Region:      cmd.String("s3-region"),
			Profile:     cmd.String("s3-profile"),
			Endpoint:    cmd.String("s3-endpoint"),
			MaxAttempts: cmd.Int("s3-max-attempts"),
		},
		Minio: minio.Config{
			Endpoint:  cmd.String("minio-endpoint"),
			AccessKey: cmd.String("minio-access-key"),
			SecretKey: cmd.String("minio-secret-key"),
			Bucket:    cmd.String("minio-bucket"),
			Insecure:  cmd.Bool("minio-insecure"),
		},
		Redis: redis.Config{
			Addr:     cmd.String("redis-addr"),
			Password: cmd.String("redis-password"),
			DB:       cmd.Int("redis-db"),
		},
		Memcache: memcache.Config{
			Servers: splitList(cmd.String("memcache-servers")),
		},
	}
}

// buildProvider opens the configured store and wraps it in a Provider rooted
// at --root, or the working directory.
func buildProvider(ctx context.Context, cmd *cli.Command) (*provider.Provider, error) {
	sc := storeConfig(cmd)
	if sc.Kind == "" || sc.Kind == "local" {
		purgeLocalCache()
	}

	s, err := provider.NewStore(ctx, sc)
	if err != nil {
		return nil, err
	}
	log.Debugf("store: %s", s)

	limit, err := humanize.ParseBytes(cmd.String("size-limit"))
	if err != nil {
		return nil, fmt.Errorf("invalid --size-limit: %w", err)
	}

	return provider.New(s,
		provider.WithRoot(cmd.String("root")),
		provider.WithSizeLimit(int64(limit)), //nolint:gosec
	)
}

// purgeLocalCache removes local entries older than cache.clean hours.
func purgeLocalCache() {
	hours, _ := config.GetInt("cache.clean", 0)
	if err := cacheutil.Purge(hours); err != nil {
		log.WithError(err).Warn("failed to purge local cache")
	}
}

// newRunner returns the runner for m's environment. Outside a runner the
// local state file lives in the cache directory.
func newRunner(cmd *cli.Command, m meta.Meta) *actions.Runner {
	dir, _ := cacheutil.Dir()
	r := actions.NewRunner(m.Env, dir)
	if w := cmd.Root().Writer; w != nil {
		r.Stdout = w
	}
	return r
}

// splitPaths returns the --path entries.
func splitPaths(cmd *cli.Command) []string {
	return splitList(cmd.String("path"))
}

// ErrorMessage renders err for the log without its error code.
func ErrorMessage(err error) string {
	return provider.Message(err)
}
