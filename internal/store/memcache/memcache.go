// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package memcache stores cache entries in memcached. Memcached cannot list
// keys, so only exact primary-key hits are possible.
package memcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/jmgilman/go/errors"

	"github.com/staranto/flavorcache/internal/store"
)

const (
	// DefaultTTL keeps an entry a little past the week its key covers.
	DefaultTTL = 8 * 24 * time.Hour
	// MaxItemSize is memcached's default item limit.
	MaxItemSize = 1024 * 1024

	maxKeyLength = 250
)

type Config struct {
	Servers []string
	Prefix  string
	TTL     time.Duration
}

// Client is the part of *memcache.Client the store uses.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Touch(key string, seconds int32) error
}

type Store struct {
	client Client
	prefix string
	ttl    time.Duration
}

func New(cfg Config) (*Store, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "memcache store requires at least one server")
	}
	return NewWithClient(memcache.New(cfg.Servers...), cfg.Prefix, cfg.TTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, prefix string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "flavorcache"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) expiration() int32 {
	return int32(s.ttl / time.Second)
}

// key builds the memcached key. Keys that are too long or contain characters
// memcached rejects are hashed.
func (s *Store) key(k string) string {
	full := s.prefix + ":" + k
	if len(full) <= maxKeyLength && !strings.ContainsAny(full, " \t\r\n") {
		return full
	}
	sum := sha1.Sum([]byte(full))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	item, err := s.client.Get(s.key(key))
	if err == memcache.ErrCacheMiss {
		return nil, store.NotFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("memcache get failed: %w", err)
	}
	return item.Value, nil
}

func (s *Store) Put(_ context.Context, key string, data []byte) error {
	if len(data) > MaxItemSize {
		return fmt.Errorf("entry of %d bytes exceeds the memcache item limit of %d bytes", len(data), MaxItemSize)
	}
	err := s.client.Set(&memcache.Item{
		Key:        s.key(key),
		Value:      data,
		Expiration: s.expiration(),
	})
	if err != nil {
		return fmt.Errorf("memcache set failed: %w", err)
	}
	return nil
}

// Exists touches the entry rather than fetching it, which also restarts its
// TTL.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	err := s.client.Touch(s.key(key), s.expiration())
	switch {
	case err == nil:
		return true, nil
	case err == memcache.ErrCacheMiss:
		return false, nil
	default:
		return false, fmt.Errorf("memcache touch failed: %w", err)
	}
}

// Find is not supported by memcached and always misses.
func (s *Store) Find(_ context.Context, prefix string) (string, error) {
	log.Debugf("memcache: prefix lookups are not supported, skipping %s", prefix)
	return "", store.NotFound(prefix + "*")
}

func (s *Store) String() string {
	return "memcache:" + s.prefix
}
