// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/klauspost/compress/zstd"
)

// ErrOutsideRoot is returned when a path or archive entry would resolve
// outside the workspace root.
var ErrOutsideRoot = errors.New("path escapes workspace root")

// Resolve expands patterns (relative to root, glob syntax allowed) into the
// sorted list of matching root-relative paths. Patterns that match nothing are
// skipped.
func Resolve(root string, patterns ...string) ([]string, error) {
	seen := map[string]bool{}
	var out []string

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			rel, err := relativeTo(root, m)
			if err != nil {
				return nil, err
			}
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

// Create writes the paths matching patterns to w as a zstd-compressed tar
// stream. Entry names are relative to root. It returns the number of regular
// files written.
func Create(w io.Writer, root string, patterns ...string) (int, error) {
	paths, err := Resolve(root, patterns...)
	if err != nil {
		return 0, err
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	files := 0
	for _, rel := range paths {
		walkErr := filepath.WalkDir(filepath.Join(root, rel), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			n, err := addEntry(tw, root, path, d)
			files += n
			return err
		})
		if walkErr != nil {
			_ = tw.Close()
			_ = zw.Close()
			return files, fmt.Errorf("failed to archive %s: %w", rel, walkErr)
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return files, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return files, fmt.Errorf("failed to finish zstd stream: %w", err)
	}
	return files, nil
}

func addEntry(tw *tar.Writer, root, path string, d fs.DirEntry) (int, error) {
	info, err := d.Info()
	if err != nil {
		return 0, err
	}
	// Only regular files and directories are cached.
	if !info.Mode().IsRegular() && !info.IsDir() {
		log.Debugf("skipping %s: not a regular file", path)
		return 0, nil
	}

	rel, err := relativeTo(root, path)
	if err != nil {
		return 0, err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return 0, err
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return 0, err
	}
	return 1, nil
}

// Extract unpacks a stream written by Create beneath root and returns the
// root-relative paths of the files it wrote.
func Extract(r io.Reader, root string) ([]string, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var written []string
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("failed to read archive: %w", err)
		}

		target := filepath.Join(root, filepath.FromSlash(hdr.Name))
		if _, err := relativeTo(root, target); err != nil {
			return written, fmt.Errorf("%s: %w", hdr.Name, ErrOutsideRoot)
		}
		if err := rejectSymlinks(root, target); err != nil {
			return written, fmt.Errorf("%s: %w", hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil { //nolint:mnd
				return written, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return written, err
			}
			written = append(written, filepath.ToSlash(strings.TrimSuffix(hdr.Name, "/")))
		default:
			log.Debugf("skipping archive entry %s of type %c", hdr.Name, hdr.Typeflag)
		}
	}
	return written, nil
}

func writeFile(target string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:mnd
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// rejectSymlinks fails when an existing component of target below root is a
// symlink, since writing through it could land outside root.
func rejectSymlinks(root, target string) error {
	rel, err := relativeTo(root, target)
	if err != nil {
		return err
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink: %w", cur, ErrOutsideRoot)
		}
	}
	return nil
}

// relativeTo returns path relative to root, failing when it escapes root.
func relativeTo(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideRoot)
	}
	return rel, nil
}
