// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package config reads the optional flavorcache.yaml file. Keys are dotted
// paths; a command namespace (restore.path) shadows the top-level key (path).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// FileName is searched for in XDG_CONFIG_HOME, APPDATA and HOME.
const FileName = "flavorcache.yaml"

type Type struct {
	Source    string
	Namespace string
	Data      map[string]any
}

var Config Type

// Load reads the config file into Config. The optional ns is the namespace
// consulted before top-level keys.
func Load(ns ...string) (Type, error) {
	path, err := locate()
	if err != nil {
		return Type{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Type{}, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read %s", path)
	}

	cfg := Type{Source: path}
	if err := yaml.Unmarshal(raw, &cfg.Data); err != nil {
		return Type{}, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to parse %s", path)
	}
	if len(ns) > 0 {
		cfg.Namespace = ns[0]
	}

	Config = cfg
	return Config, nil
}

// candidates lists the paths tried for key, most specific first.
func (cfg *Type) candidates(key string) []string {
	if cfg.Namespace == "" {
		return []string{key}
	}
	return []string{cfg.Namespace + "." + key, key}
}

// lookup returns the first value found along cfg.candidates(key).
func (cfg *Type) lookup(key string) (any, error) {
	for _, c := range cfg.candidates(key) {
		if v, ok := walk(cfg.Data, strings.Split(c, ".")); ok {
			return v, nil
		}
	}
	return nil, errors.WithContext(
		errors.Newf(errors.CodeNotFound, "no value for %s", key),
		"candidates", cfg.candidates(key),
	)
}

func walk(node any, path []string) (any, bool) {
	for _, p := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[p]; !ok {
			return nil, false
		}
	}
	return node, true
}

// get loads Config on first use, then converts the value at key. A missing
// key yields the default when one is given.
func get[T any](key string, convert func(any) (T, bool), defaults []T) (T, error) {
	var zero T
	if len(Config.Data) == 0 {
		_, _ = Load(Config.Namespace)
	}

	val, err := Config.lookup(key)
	if err != nil {
		if len(defaults) == 1 {
			return defaults[0], nil
		}
		return zero, err
	}

	out, ok := convert(val)
	if !ok {
		return zero, errors.Newf(errors.CodeInvalidConfig, "%s: unexpected %T value", key, val)
	}
	return out, nil
}

func GetString(key string, defaultValue ...string) (string, error) {
	return get(key, func(v any) (string, bool) {
		s, ok := v.(string)
		return s, ok
	}, defaultValue)
}

// GetInt accepts any YAML number, truncating floats.
func GetInt(key string, defaultValue ...int) (int, error) {
	return get(key, func(v any) (int, bool) {
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		}
		return 0, false
	}, defaultValue)
}

// GetStringSlice returns a list value. A scalar string is a one-element list.
func GetStringSlice(key string) ([]string, error) {
	return get(key, func(v any) ([]string, bool) {
		switch l := v.(type) {
		case string:
			return []string{l}, true
		case []any:
			out := make([]string, 0, len(l))
			for _, item := range l {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		}
		return nil, false
	}, nil)
}

// locate finds the config file. An explicit FLAVORCACHE_CFG must exist.
func locate() (string, error) {
	if p := os.Getenv("FLAVORCACHE_CFG"); p != "" {
		fi, err := os.Stat(p)
		switch {
		case err != nil:
			return "", errors.Newf(errors.CodeInvalidConfig, "config file not found: %s", p)
		case fi.IsDir():
			return "", errors.Newf(errors.CodeInvalidConfig, "FLAVORCACHE_CFG points to a directory: %s", p)
		}
		return p, nil
	}

	for _, env := range []string{"XDG_CONFIG_HOME", "APPDATA", "HOME"} {
		dir := os.Getenv(env)
		if dir == "" {
			continue
		}
		file := filepath.Join(dir, FileName)
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			log.Debugf("using config file: %s", file)
			return file, nil
		}
	}
	return "", errors.Newf(errors.CodeNotFound, "no %s found in standard locations", FileName)
}
