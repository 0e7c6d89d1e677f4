// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const keyDoc = "# flavorcache key\n\n" +
	"## Short description\n\n" +
	"Print the weekly cache key.\nUseful when debugging a miss.\n\n" +
	"## Quick examples\n\n" +
	"```sh\n" +
	"# Print this week's key\n" +
	"flavorcache key\n\n" +
	"# Key for a given date\n" +
	"flavorcache   key --date 2024-01-01\n" +
	"flavorcache key --prefix gelato\n" +
	"```\n"

func TestParsePage(t *testing.T) {
	p := parsePage(keyDoc)
	assert.Equal(t, "flavorcache key", p.Title)
	assert.Equal(t, "Print the weekly cache key. Useful when debugging a miss.", p.Short)
	assert.Equal(t, []example{
		{Desc: "Print this week's key", Cmd: "flavorcache key"},
		{Desc: "Key for a given date", Cmd: "flavorcache key --date 2024-01-01"},
		{Desc: "Example", Cmd: "flavorcache key --prefix gelato"},
	}, p.Examples)
}

func TestParsePage_Fallbacks(t *testing.T) {
	p := parsePage("# flavorcache save\n\nNo sections here.\n")
	assert.Equal(t, "flavorcache save.", p.Short)
	assert.Empty(t, p.Examples)
	assert.Contains(t, p.tldr("save"), "`flavorcache save --help`")
}

func TestTLDR(t *testing.T) {
	got := parsePage(keyDoc).tldr("key")
	want := "# flavorcache-key\n\n" +
		"> Print the weekly cache key. Useful when debugging a miss.\n" +
		"> More information: https://github.com/staranto/flavorcache.\n\n" +
		"- Print this week's key:\n\n`flavorcache key`\n\n" +
		"- Key for a given date:\n\n`flavorcache key --date 2024-01-01`\n\n" +
		"- Example:\n\n`flavorcache key --prefix gelato`\n"
	assert.Equal(t, want, got)
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "docs", "commands")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "key.md"), []byte(keyDoc), 0o644))

	res, err := generate(root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.pages)
	assert.Len(t, res.stale, 2)
	_, err = os.Stat(filepath.Join(root, "docs", "tldr"))
	assert.True(t, os.IsNotExist(err), "check mode writes nothing")

	res, err = generate(root, true)
	require.NoError(t, err)
	assert.Len(t, res.stale, 2)

	man, err := os.ReadFile(filepath.Join(root, "docs", "man", "share", "man1", "flavorcache-key.1"))
	require.NoError(t, err)
	assert.Contains(t, string(man), "flavorcache key")

	_, err = os.Stat(filepath.Join(root, "docs", "tldr", "flavorcache-key.md"))
	assert.NoError(t, err)

	res, err = generate(root, false)
	require.NoError(t, err)
	assert.Empty(t, res.stale)
}
