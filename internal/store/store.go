// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/jmgilman/go/errors"
)

// Store holds cache entries keyed by cache key. Entries are immutable once
// written; callers check Exists before Put.
type Store interface {
	// Get returns the entry stored under key. A miss is a NotFound error.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte) error
	// Exists reports whether an entry is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
	// Find returns the newest key starting with prefix. A miss is a NotFound
	// error.
	Find(ctx context.Context, prefix string) (string, error)
	String() string
}

// NotFound returns the error stores use to report a miss.
func NotFound(key string) error {
	return errors.WithContext(errors.Newf(errors.CodeNotFound, "no cache entry for %s", key), "key", key)
}

// IsNotFound reports whether err is a store miss.
func IsNotFound(err error) bool {
	return errors.GetCode(err) == errors.CodeNotFound
}
