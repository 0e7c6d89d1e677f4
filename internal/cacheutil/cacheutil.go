// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
)

// Each entry is a directory named by the hashed key holding the payload and
// the clear-text key.
const (
	dataFile = "data"
	keyFile  = "key"
)

// Entry represents a cached artifact on disk.
type Entry struct {
	Key     string
	Dir     string
	Path    string
	Data    []byte
	ModTime time.Time
}

// Dir resolves the base cache directory: FLAVORCACHE_CACHE_DIR when set,
// otherwise os.UserCacheDir()/flavorcache. It reports false when neither
// resolves.
func Dir() (string, bool) {
	if c := os.Getenv("FLAVORCACHE_CACHE_DIR"); c != "" {
		return c, true
	}
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return "", false
	}
	return filepath.Join(dir, "flavorcache"), true
}

// Enabled is false when FLAVORCACHE_CACHE is "0" or "false".
func Enabled() bool {
	switch os.Getenv("FLAVORCACHE_CACHE") {
	case "0", "false":
		return false
	}
	return true
}

// EnsureBaseDir creates the base directory. The bool reports whether the
// cache is usable.
func EnsureBaseDir() (string, bool, error) {
	base, ok := usableBase()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// EntryPath returns the payload path for clearKey beneath subdirs and
// whether it exists.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	dir, ok := entryDir(subdirs, clearKey)
	if !ok {
		return "", false
	}
	p := filepath.Join(dir, dataFile)
	_, err := os.Stat(p)
	return p, err == nil
}

// Read loads the entry for clearKey.
func Read(subdirs []string, clearKey string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}
	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}
	e, err := load(filepath.Dir(p), true)
	if err != nil {
		return nil, false
	}
	e.Key = clearKey
	return e, true
}

// Write stores data for clearKey. The payload is renamed into place so a
// concurrent Read never sees a partial file.
func Write(subdirs []string, clearKey string, data []byte) error {
	if !Enabled() {
		return nil
	}
	dir, ok := entryDir(subdirs, clearKey)
	if !ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, keyFile), []byte(clearKey)); err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, dataFile), data); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Remove deletes the entry for clearKey. A missing entry is not an error.
func Remove(subdirs []string, clearKey string) error {
	dir, ok := entryDir(subdirs, clearKey)
	if !ok {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// Keys lists entries beneath subdirs whose clear-text key starts with
// prefix. Data is not loaded.
func Keys(subdirs []string, prefix string) ([]Entry, error) {
	if !Enabled() {
		return nil, nil
	}
	base, ok := Dir()
	if !ok {
		return nil, nil
	}
	parent := filepath.Join(append([]string{base}, subdirs...)...)
	dirs, err := os.ReadDir(parent)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		e, err := load(filepath.Join(parent, d.Name()), false)
		if err != nil {
			// Half-written or purged.
			continue
		}
		if strings.HasPrefix(e.Key, prefix) {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// Purge removes entries whose payload is older than hours. Files that are not
// entries are left alone. hours <= 0 disables it.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	base, ok := Dir()
	if !ok {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == base {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() || d.Name() != dataFile {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}
		dir := filepath.Dir(path)
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warnf("failed to remove cache entry %s", dir)
			return nil
		}
		log.Debugf("removed cache entry %s", dir)
		return fs.SkipDir
	})
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

func usableBase() (string, bool) {
	if !Enabled() {
		return "", false
	}
	return Dir()
}

func entryDir(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}
	parts := append([]string{base}, subdirs...)
	return filepath.Join(append(parts, encodeKey(clearKey))...), true
}

// load reads the entry in dir, with its payload when withData is set.
func load(dir string, withData bool) (*Entry, error) {
	key, err := os.ReadFile(filepath.Join(dir, keyFile))
	if err != nil {
		return nil, err
	}
	p := filepath.Join(dir, dataFile)
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	e := &Entry{Key: string(key), Dir: dir, Path: p, ModTime: info.ModTime()}
	if withData {
		if e.Data, err = os.ReadFile(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// encodeKey names an entry directory after the SHA-256 of k.
func encodeKey(k string) string {
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:])
}
