// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/jmgilman/go/errors"

	"github.com/staranto/flavorcache/internal/archive"
	"github.com/staranto/flavorcache/internal/store"
)

const (
	// MaxKeyLength bounds a single cache key.
	MaxKeyLength = 512
	// MaxKeys bounds the primary key plus restore keys.
	MaxKeys = 10
	// DefaultSizeLimit is the largest archive Save will upload.
	DefaultSizeLimit int64 = 10 * 1024 * 1024 * 1024
)

// Provider restores and saves cached paths through a Store.
type Provider struct {
	store store.Store
	// root is the workspace directory cached paths are relative to.
	root      string
	sizeLimit int64
}

// Option customizes a Provider.
type Option func(*Provider)

// WithRoot sets the workspace root. Defaults to the working directory.
func WithRoot(root string) Option {
	return func(p *Provider) { p.root = root }
}

// WithSizeLimit sets the largest archive Save will upload.
func WithSizeLimit(limit int64) Option {
	return func(p *Provider) {
		if limit > 0 {
			p.sizeLimit = limit
		}
	}
}

// New returns a Provider backed by s.
func New(s store.Store, opts ...Option) (*Provider, error) {
	p := &Provider{store: s, sizeLimit: DefaultSizeLimit}
	for _, opt := range opts {
		opt(p)
	}
	if p.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		p.root = wd
	}
	root, err := filepath.Abs(p.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	p.root = root
	return p, nil
}

// Restore looks for an entry under primaryKey, then under each restore key
// taken as a prefix, and unpacks the first one found into the workspace. It
// returns the key the entry was restored from, or "" when nothing matched.
func (p *Provider) Restore(ctx context.Context, paths []string, primaryKey string, restoreKeys ...string) (string, error) {
	if err := checkPaths(paths); err != nil {
		return "", err
	}
	keys := append([]string{primaryKey}, restoreKeys...)
	if len(keys) > MaxKeys {
		return "", validationError("Key Validation Error: Keys are limited to a maximum of %d.", MaxKeys)
	}
	for _, k := range keys {
		if err := checkKey(k); err != nil {
			return "", err
		}
	}

	matched, err := p.lookup(ctx, keys)
	if err != nil || matched == "" {
		return "", err
	}

	data, err := p.store.Get(ctx, matched)
	if err != nil {
		if store.IsNotFound(err) {
			// Expired between lookup and download.
			return "", nil
		}
		return "", fmt.Errorf("failed to download cache %s: %w", matched, err)
	}
	log.Infof("Cache Size: ~%s (%d B)", humanize.IBytes(uint64(len(data))), len(data))

	files, err := archive.Extract(bytes.NewReader(data), p.root)
	if err != nil {
		return "", fmt.Errorf("failed to extract cache %s: %w", matched, err)
	}
	log.Debugf("restored %d file(s) from %s: %v", len(files), matched, files)

	return matched, nil
}

// lookup returns the first key with an entry: the primary key exactly, then
// the newest entry for each restore key prefix.
func (p *Provider) lookup(ctx context.Context, keys []string) (string, error) {
	ok, err := p.store.Exists(ctx, keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to look up %s in %s: %w", keys[0], p.store, err)
	}
	if ok {
		return keys[0], nil
	}

	for _, prefix := range keys[1:] {
		found, err := p.store.Find(ctx, prefix)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to look up %s in %s: %w", prefix, p.store, err)
		}
		return found, nil
	}
	return "", nil
}

// Save archives paths and stores the archive under key. Entries are
// immutable: an existing key is a reserve error.
func (p *Provider) Save(ctx context.Context, paths []string, key string) error {
	if err := checkPaths(paths); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}

	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check %s in %s: %w", key, p.store, err)
	}
	if exists {
		return reserveError(key)
	}

	var buf bytes.Buffer
	n, err := archive.Create(&buf, p.root, paths...)
	if err != nil {
		if errors.Is(err, archive.ErrOutsideRoot) {
			return validationError("Path Validation Error: %v", err)
		}
		return fmt.Errorf("failed to create archive: %w", err)
	}
	if n == 0 {
		return validationError("Path Validation Error: Path(s) specified in the action for caching do(es) not exist, hence no cache is being saved.")
	}

	size := int64(buf.Len())
	log.Infof("Cache Size: ~%s (%d B)", humanize.IBytes(uint64(size)), size)
	if size > p.sizeLimit {
		return fmt.Errorf("Cache size of ~%s (%d B) is over the %s limit, not saving cache.",
			humanize.IBytes(uint64(size)), size, humanize.IBytes(uint64(p.sizeLimit)))
	}

	if err := p.store.Put(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload cache %s: %w", key, err)
	}
	log.Infof("Cache saved with key: %s", key)
	return nil
}

// Store returns the backing store.
func (p *Provider) Store() store.Store {
	return p.store
}

// Root returns the workspace root.
func (p *Provider) Root() string {
	return p.root
}

func checkPaths(paths []string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) != "" {
			return nil
		}
	}
	return validationError("Path Validation Error: At least one directory or file path is required")
}

func checkKey(key string) error {
	if key == "" {
		return validationError("Key Validation Error: key cannot be empty.")
	}
	if len(key) > MaxKeyLength {
		return validationError("Key Validation Error: %s cannot be larger than %d characters.", key, MaxKeyLength)
	}
	if strings.Contains(key, ",") {
		return validationError("Key Validation Error: %s cannot contain commas.", key)
	}
	return nil
}
