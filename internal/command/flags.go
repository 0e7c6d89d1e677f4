// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/flavorcache/internal/actions"
)

const defaultPath = "newcity.json"

var (
	tldrFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
)

// NewCacheFlags returns the flags shared by restore and save. ns is the
// command name and doubles as the config namespace; src is the config file.
func NewCacheFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "files or globs to cache, comma or newline separated",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_PATH")),
			Value:   defaultPath,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "prefix",
			Usage:   "cache key prefix, the week number is appended",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_PREFIX")),
			Value:   actions.DefaultKeyPrefix,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, KeyPrefixValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "root",
			Usage:   "workspace directory cached paths are relative to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_ROOT")),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "size-limit",
			Usage:   "largest archive to save, e.g. 500MiB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_SIZE_LIMIT")),
			Value:   "10GiB",
			Validator: func(value string) error {
				return FlagValidators(value, SizeValidator)
			},
		}),
		tldrFlag,
	}
}

// NewStoreFlags returns the flags selecting and configuring the backing
// store. Store settings live under their own config sections (s3.bucket,
// redis.addr) rather than the command namespace.
func NewStoreFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "store",
			Aliases: []string{"s"},
			Usage:   "backing store: " + strings.Join(storeKinds(), ", "),
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_STORE")),
			Value:   "local",
			Validator: func(value string) error {
				return FlagValidators(value, StoreValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "namespace for entries within the store",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_NAMESPACE")),
		}),
		&cli.DurationFlag{
			Name:  "ttl",
			Usage: "entry lifetime for expiring stores (redis, memcache)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("FLAVORCACHE_TTL"),
				yaml.YAML("ttl", altsrc.StringSourcer(src)),
			),
		},

		ConfigKeyFlag(src, "s3.bucket", &cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "S3 bucket",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_S3_BUCKET")),
		}),
		ConfigKeyFlag(src, "s3.region", &cli.StringFlag{
			Name:    "s3-region",
			Usage:   "S3 region",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_REGION")),
		}),
		ConfigKeyFlag(src, "s3.profile", &cli.StringFlag{
			Name:    "s3-profile",
			Usage:   "AWS shared config profile",
			Sources: cli.NewValueSourceChain(cli.EnvVar("AWS_PROFILE")),
		}),
		ConfigKeyFlag(src, "s3.endpoint", &cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3 endpoint override",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_S3_ENDPOINT")),
		}),
		&cli.IntFlag{
			Name:  "s3-max-attempts",
			Usage: "maximum S3 request attempts, 0 for the SDK default",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("FLAVORCACHE_S3_MAX_ATTEMPTS"),
				yaml.YAML("s3.max_retries", altsrc.StringSourcer(src)),
			),
		},

		ConfigKeyFlag(src, "minio.endpoint", &cli.StringFlag{
			Name:    "minio-endpoint",
			Usage:   "MinIO host:port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_MINIO_ENDPOINT")),
		}),
		ConfigKeyFlag(src, "minio.bucket", &cli.StringFlag{
			Name:    "minio-bucket",
			Usage:   "MinIO bucket",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_MINIO_BUCKET")),
		}),
		ConfigKeyFlag(src, "minio.access_key", &cli.StringFlag{
			Name:    "minio-access-key",
			Usage:   "MinIO access key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MINIO_ACCESS_KEY")),
		}),
		&cli.StringFlag{
			Name:    "minio-secret-key",
			Usage:   "MinIO secret key",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MINIO_SECRET_KEY")),
		},
		&cli.BoolFlag{
			Name:  "minio-insecure",
			Usage: "talk to MinIO over plain HTTP",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("FLAVORCACHE_MINIO_INSECURE"),
				yaml.YAML("minio.insecure", altsrc.StringSourcer(src)),
			),
			HideDefault: true,
		},

		ConfigKeyFlag(src, "redis.addr", &cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis host:port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_REDIS_ADDR")),
		}),
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("REDIS_PASSWORD")),
		},
		&cli.IntFlag{
			Name:  "redis-db",
			Usage: "Redis database number",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("FLAVORCACHE_REDIS_DB"),
				yaml.YAML("redis.db", altsrc.StringSourcer(src)),
			),
		},

		ConfigKeyFlag(src, "memcache.servers", &cli.StringFlag{
			Name:    "memcache-servers",
			Usage:   "comma separated memcached host:port list",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLAVORCACHE_MEMCACHE_SERVERS")),
		}),
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// ConfigKeyFlag adds a single config file key to the flag's Sources chain.
func ConfigKeyFlag(path string, key string, flag *cli.StringFlag) *cli.StringFlag {
	flag.Sources.Chain = append(flag.Sources.Chain, yaml.YAML(key, altsrc.StringSourcer(path)))
	return flag
}

// splitList splits a comma or newline separated value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '\n' }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
