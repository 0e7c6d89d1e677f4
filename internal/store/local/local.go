// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package local stores cache entries in the local cache directory. It suits
// self-hosted runners with a persistent disk and local testing.
package local

import (
	"context"
	"sort"

	"github.com/apex/log"
	"github.com/jmgilman/go/errors"

	"github.com/staranto/flavorcache/internal/cacheutil"
	"github.com/staranto/flavorcache/internal/store"
)

// Store keeps entries beneath <cache dir>/<namespace>.
type Store struct {
	namespace []string
}

// New returns a Store. The cache directory is created eagerly so a disabled
// or unresolvable cache is reported up front.
func New(namespace string) (*Store, error) {
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.New(errors.CodeInvalidConfig, "local cache directory is disabled or cannot be resolved")
	}
	if namespace == "" {
		namespace = "entries"
	}
	return &Store{namespace: []string{namespace}}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := cacheutil.Read(s.namespace, key)
	if !ok {
		return nil, store.NotFound(key)
	}
	return e.Data, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cacheutil.Write(s.namespace, key, data); err != nil {
		if rerr := cacheutil.Remove(s.namespace, key); rerr != nil {
			log.WithError(rerr).Warnf("failed to clean up partial entry %s", key)
		}
		return err
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := cacheutil.EntryPath(s.namespace, key)
	return ok, nil
}

func (s *Store) Find(ctx context.Context, prefix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entries, err := cacheutil.Keys(s.namespace, prefix)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", store.NotFound(prefix + "*")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries[0].Key, nil
}

func (s *Store) String() string {
	dir, _ := cacheutil.Dir()
	return "local:" + dir
}
