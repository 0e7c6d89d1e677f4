// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package redis stores cache entries in Redis. Entries expire after a TTL;
// a sorted set indexed by write time answers prefix lookups.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/jmgilman/go/errors"
	"github.com/redis/go-redis/v9"

	"github.com/staranto/flavorcache/internal/store"
)

// DefaultTTL keeps an entry a little past the week its key covers.
const DefaultTTL = 8 * 24 * time.Hour

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Store implements store.Store using Redis.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	// now scores index entries.
	now func() time.Time
}

// New returns a Store for cfg.Addr. The connection is not checked until
// Ping or the first command.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "redis store requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "flavorcache"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

// key builds the final Redis key with prefix.
func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Store) indexKey() string {
	return s.prefix + ":index"
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, store.NotFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return res, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(s.now().UnixNano()), Member: key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return count > 0, nil
}

// Find walks the index newest first. Index members whose entry has expired
// are pruned on the way.
func (s *Store) Find(ctx context.Context, prefix string) (string, error) {
	members, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return "", fmt.Errorf("redis index read failed: %w", err)
	}

	for _, m := range members {
		if !strings.HasPrefix(m, prefix) {
			continue
		}
		ok, err := s.Exists(ctx, m)
		if err != nil {
			return "", err
		}
		if ok {
			return m, nil
		}
		if err := s.client.ZRem(ctx, s.indexKey(), m).Err(); err != nil {
			log.WithError(err).Debugf("redis: failed to prune %s from the index", m)
		}
	}
	return "", store.NotFound(prefix + "*")
}

// Ping checks if the Redis connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) String() string {
	return "redis://" + s.client.Options().Addr + "/" + s.prefix
}
