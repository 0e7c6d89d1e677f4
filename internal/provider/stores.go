// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/jmgilman/go/errors"

	"github.com/staranto/flavorcache/internal/store"
	"github.com/staranto/flavorcache/internal/store/local"
	"github.com/staranto/flavorcache/internal/store/memcache"
	"github.com/staranto/flavorcache/internal/store/minio"
	"github.com/staranto/flavorcache/internal/store/redis"
	"github.com/staranto/flavorcache/internal/store/s3"
)

// StoreKinds lists the accepted values of Config.Kind.
var StoreKinds = []string{"local", "s3", "minio", "redis", "memcache"}

// Config selects and configures a backing store.
type Config struct {
	Kind string
	// Prefix namespaces entries within the store.
	Prefix string
	TTL    time.Duration

	S3       s3.Config
	Minio    minio.Config
	Redis    redis.Config
	Memcache memcache.Config
}

// NewStore builds the store named by cfg.Kind.
func NewStore(ctx context.Context, cfg Config) (store.Store, error) {
	log.Debugf("NewStore: kind=%s prefix=%s", cfg.Kind, cfg.Prefix)

	switch cfg.Kind {
	case "", "local":
		return local.New(cfg.Prefix)
	case "s3":
		c := cfg.S3
		if c.Prefix == "" {
			c.Prefix = cfg.Prefix
		}
		return s3.New(ctx, c)
	case "minio":
		c := cfg.Minio
		if c.Prefix == "" {
			c.Prefix = cfg.Prefix
		}
		return minio.New(c)
	case "redis":
		c := cfg.Redis
		if c.Prefix == "" {
			c.Prefix = cfg.Prefix
		}
		if c.TTL == 0 {
			c.TTL = cfg.TTL
		}
		s, err := redis.New(c)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis at %s is unreachable: %w", c.Addr, err)
		}
		return s, nil
	case "memcache":
		c := cfg.Memcache
		if c.Prefix == "" {
			c.Prefix = cfg.Prefix
		}
		if c.TTL == 0 {
			c.TTL = cfg.TTL
		}
		return memcache.New(c)
	}

	return nil, errors.WithContext(
		errors.Newf(errors.CodeInvalidConfig, "unknown store %q, must be one of %v", cfg.Kind, StoreKinds),
		"store", cfg.Kind)
}
