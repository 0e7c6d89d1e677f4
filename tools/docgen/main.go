// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Command docgen renders docs/commands/*.md into man pages
// (docs/man/share/man1/flavorcache-<cmd>.1) and TLDR pages
// (docs/tldr/flavorcache-<cmd>.md). With -check it only reports stale output,
// for CI.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

const tool = "flavorcache"

// result lists what a run touched.
type result struct {
	pages int
	stale []string
}

func main() {
	root := flag.String("root", ".", "repo root")
	check := flag.Bool("check", false, "report stale output without writing it")
	flag.Parse()

	res, err := generate(*root, !*check)
	switch {
	case err != nil:
		fatalf("%v", err)
	case res.pages == 0:
		fatalf("no command markdown found under %s", filepath.Join(*root, "docs", "commands"))
	case *check && len(res.stale) > 0:
		fatalf("stale generated docs, run docgen:\n  %s", strings.Join(res.stale, "\n  "))
	}
}

// generate renders every page under root/docs/commands. When write is false
// nothing is written and the stale outputs are reported instead.
func generate(root string, write bool) (result, error) {
	var res result
	commandsDir := filepath.Join(root, "docs", "commands")
	outDirs := map[string]string{
		"man":  filepath.Join(root, "docs", "man", "share", "man1"),
		"tldr": filepath.Join(root, "docs", "tldr"),
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return res, fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	for _, e := range entries {
		cmd, ok := strings.CutSuffix(e.Name(), ".md")
		if e.IsDir() || !ok {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(commandsDir, e.Name()))
		if err != nil {
			return res, fmt.Errorf("reading %s: %w", e.Name(), err)
		}

		outputs := map[string][]byte{
			filepath.Join(outDirs["man"], fmt.Sprintf("%s-%s.1", tool, cmd)):    md2man.Render(raw),
			filepath.Join(outDirs["tldr"], fmt.Sprintf("%s-%s.md", tool, cmd)): []byte(parsePage(string(raw)).tldr(cmd)),
		}
		for path, content := range outputs {
			if !stale(path, content) {
				continue
			}
			res.stale = append(res.stale, path)
			if !write {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return res, fmt.Errorf("creating output dir: %w", err)
			}
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return res, fmt.Errorf("writing %s: %w", path, err)
			}
		}
		res.pages++
	}
	return res, nil
}

// stale reports whether path is missing or differs from content beyond
// surrounding whitespace.
func stale(path string, content []byte) bool {
	old, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return !bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content))
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}
