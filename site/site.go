// Package site provides the default documents for a tinyweb document root.
//
// The pages are embedded at compile time so a fresh document root can be
// populated from the binary alone (see the init command).
package site

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Pages holds the default documents under pages/:
//
//	pages/
//	  index.html  - served for "GET /"
//	  hello.html  - served by /api/sleep
//	  404.html    - served for anything not found
//
//go:embed pages/*
var Pages embed.FS

// Files returns the default documents rooted at their file names.
func Files() fs.FS {
	sub, err := fs.Sub(Pages, "pages")
	if err != nil {
		// the directory is embedded above, so this cannot happen
		panic(err)
	}
	return sub
}

// Install copies the default documents into dir, creating it if needed.
//
// Existing files are left alone unless overwrite is set. Returns the
// names of the files written.
func Install(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	files := Files()
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded pages: %w", err)
	}

	var written []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		dst := filepath.Join(dir, e.Name())

		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, fmt.Errorf("stat %s: %w", dst, err)
			}
		}

		data, err := fs.ReadFile(files, e.Name())
		if err != nil {
			return written, fmt.Errorf("read embedded %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dst, err)
		}
		written = append(written, e.Name())
	}

	return written, nil
}
