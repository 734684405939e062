// Package docs resolves document arguments against the configured markdown
// root and lists markdown files for batch indexing. Files are identified
// store-wide by their root-relative, slash-separated path.
package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Resolve locates a file argument: first as given, then relative to root.
// It returns the on-disk path and the canonical name used in the store.
func Resolve(root, arg string) (path, name string, err error) {
	if _, statErr := os.Stat(arg); statErr == nil {
		return arg, Name(root, arg), nil
	}

	candidate := filepath.Join(root, arg)
	if _, statErr := os.Stat(candidate); statErr == nil {
		return candidate, Name(root, candidate), nil
	}

	return "", "", fmt.Errorf("%s not found (tried %q and %q)", arg, arg, candidate)
}

// Name converts a path to its canonical store name: relative to root where
// possible, base name otherwise, always slash-separated.
func Name(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// Path maps a canonical store name back to its on-disk location.
func Path(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}

// ListMarkdown returns the markdown files designated by path: the file
// itself, or a directory's *.md entries (recursing when asked).
func ListMarkdown(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path not found: %s", path)
	}

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".md") {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	if recursive {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".md") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	return files, nil
}
