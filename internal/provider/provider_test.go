// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/flavorcache/internal/store"
)

// memStore is an in-memory store.Store. Find returns the most recently put
// key with the prefix.
type memStore struct {
	entries map[string][]byte
	order   []string
	failGet error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	d, ok := m.entries[key]
	if !ok {
		return nil, store.NotFound(key)
	}
	return d, nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	m.entries[key] = append([]byte(nil), data...)
	m.order = append(m.order, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.entries[key]
	return ok, nil
}

func (m *memStore) Find(_ context.Context, prefix string) (string, error) {
	for i := len(m.order) - 1; i >= 0; i-- {
		if strings.HasPrefix(m.order[i], prefix) {
			return m.order[i], nil
		}
	}
	return "", store.NotFound(prefix)
}

func (m *memStore) String() string { return "mem" }

func newProvider(t *testing.T, s store.Store) (*Provider, string) {
	t.Helper()
	root := t.TempDir()
	p, err := New(s, WithRoot(root))
	require.NoError(t, err)
	return p, root
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	saver, src := newProvider(t, s)
	require.NoError(t, os.WriteFile(filepath.Join(src, "newcity.json"), []byte(`{"a":1}`), 0o600))
	require.NoError(t, saver.Save(ctx, []string{"newcity.json"}, "flavors-43"))

	restorer, dst := newProvider(t, s)
	matched, err := restorer.Restore(ctx, []string{"newcity.json"}, "flavors-43")
	require.NoError(t, err)
	assert.Equal(t, "flavors-43", matched)

	got, err := os.ReadFile(filepath.Join(dst, "newcity.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestRestore_Miss(t *testing.T) {
	p, _ := newProvider(t, newMemStore())

	matched, err := p.Restore(context.Background(), []string{"newcity.json"}, "flavors-43")
	assert.NoError(t, err)
	assert.Empty(t, matched)
}

func TestRestore_FallsBackToRestoreKeys(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()

	saver, src := newProvider(t, s)
	require.NoError(t, os.WriteFile(filepath.Join(src, "newcity.json"), []byte(`{}`), 0o600))
	require.NoError(t, saver.Save(ctx, []string{"newcity.json"}, "flavors-42"))

	restorer, _ := newProvider(t, s)
	matched, err := restorer.Restore(ctx, []string{"newcity.json"}, "flavors-43", "gelato-", "flavors-")
	require.NoError(t, err)
	assert.Equal(t, "flavors-42", matched)
}

func TestRestore_StoreErrorIsNotValidation(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	require.NoError(t, s.Put(ctx, "flavors-43", []byte("x")))
	s.failGet = errors.New("connection reset")

	p, _ := newProvider(t, s)
	_, err := p.Restore(ctx, []string{"newcity.json"}, "flavors-43")
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	assert.False(t, IsReserveError(err))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	p, _ := newProvider(t, newMemStore())
	// t.TempDir dirs share a parent, so this one sits next to the workspace.
	sibling := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sibling, "newcity.json"), []byte("{}"), 0o600))

	tooMany := make([]string, MaxKeys)
	for i := range tooMany {
		tooMany[i] = "k"
	}

	tests := []struct {
		name string
		run  func() error
		msg  string
	}{
		{
			name: "restore without paths",
			run: func() error {
				_, err := p.Restore(ctx, []string{" "}, "flavors-43")
				return err
			},
			msg: "At least one directory or file path is required",
		},
		{
			name: "key with comma",
			run: func() error {
				_, err := p.Restore(ctx, []string{"newcity.json"}, "flavors,43")
				return err
			},
			msg: "cannot contain commas",
		},
		{
			name: "key too long",
			run: func() error {
				return p.Save(ctx, []string{"newcity.json"}, strings.Repeat("k", MaxKeyLength+1))
			},
			msg: "cannot be larger than 512 characters",
		},
		{
			name: "too many keys",
			run: func() error {
				_, err := p.Restore(ctx, []string{"newcity.json"}, "flavors-43", tooMany...)
				return err
			},
			msg: "Keys are limited to a maximum of 10",
		},
		{
			name: "empty key",
			run: func() error {
				return p.Save(ctx, []string{"newcity.json"}, "")
			},
			msg: "key cannot be empty",
		},
		{
			name: "nothing to save",
			run: func() error {
				return p.Save(ctx, []string{"newcity.json"}, "flavors-43")
			},
			msg: "do(es) not exist",
		},
		{
			name: "path outside workspace",
			run: func() error {
				return p.Save(ctx, []string{"../" + filepath.Base(sibling) + "/*"}, "flavors-43")
			},
			msg: "path escapes workspace root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, IsValidationError(err), "got %v", err)
			assert.Contains(t, Message(err), tt.msg)
		})
	}
}

func TestSave_ReserveError(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	require.NoError(t, s.Put(ctx, "flavors-43", []byte("taken")))

	p, root := newProvider(t, s)
	require.NoError(t, os.WriteFile(filepath.Join(root, "newcity.json"), []byte(`{}`), 0o600))

	err := p.Save(ctx, []string{"newcity.json"}, "flavors-43")
	require.Error(t, err)
	assert.True(t, IsReserveError(err))
	assert.Equal(t, "Unable to reserve cache with key flavors-43, another job may be creating this cache.", Message(err))
	assert.Equal(t, "taken", string(s.entries["flavors-43"]))
}

func TestSave_SizeLimit(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	root := t.TempDir()
	p, err := New(s, WithRoot(root), WithSizeLimit(8))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "newcity.json"), []byte(strings.Repeat("flavor", 100)), 0o600))

	err = p.Save(ctx, []string{"newcity.json"}, "flavors-43")
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "not saving cache")
	assert.Empty(t, s.entries)
}

func TestNewStore_UnknownKind(t *testing.T) {
	_, err := NewStore(context.Background(), Config{Kind: "floppy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestNewStore_Local(t *testing.T) {
	t.Setenv("FLAVORCACHE_CACHE_DIR", t.TempDir())
	t.Setenv("FLAVORCACHE_CACHE", "")

	s, err := NewStore(context.Background(), Config{Kind: "local"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.String(), "local:"))
}
