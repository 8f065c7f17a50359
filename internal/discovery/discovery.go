// Package discovery walks the HTML directory of an export and resolves each
// page's location to the root-relative URL stored in the search index.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/easearch/internal/logfields"
)

// File is a discovered regular file below the HTML directory.
type File struct {
	Path string // Absolute or caller-relative filesystem path
	Name string // Basename
	URL  string // POSIX path relative to the export root
}

// Layout is the directory layout of an export: the root that receives the
// generated artifacts and the subdirectory holding the pages.
type Layout struct {
	Root    string
	HTMLDir string
}

// NewLayout joins htmlDir below root unless it is already absolute.
func NewLayout(root, htmlDir string) Layout {
	dir := htmlDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, htmlDir)
	}
	return Layout{Root: filepath.Clean(root), HTMLDir: filepath.Clean(dir)}
}

// Check verifies that both directories exist.
func (l Layout) Check() error {
	if err := checkDir(l.Root); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExportRootNotFound, l.Root, err)
	}
	if err := checkDir(l.HTMLDir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHTMLDirNotFound, l.HTMLDir, err)
	}
	if _, err := RelativeURL(l.Root, l.HTMLDir); err != nil {
		return err
	}
	return nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotADirectory
	}
	return nil
}

// Walk returns every regular file below the HTML directory. Directory
// entries are visited in lexical order, so the result is the same on every
// filesystem.
func (l Layout) Walk() ([]File, error) {
	var files []File

	err := filepath.WalkDir(l.HTMLDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		url, err := RelativeURL(l.Root, p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: p, Name: d.Name(), URL: url})
		slog.Debug("Discovered file", logfields.File(d.Name()), logfields.URL(url))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrWalkFailed, l.HTMLDir, err)
	}
	return files, nil
}

// RelativeURL returns the path of target relative to root with forward
// slashes on every platform.
func RelativeURL(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrOutsideRoot, target, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	return filepath.ToSlash(rel), nil
}

// Depth returns how many directories below the export root the page at url
// lives. A page directly in the root has depth 0.
func Depth(url string) int {
	dir := path.Dir(path.Clean(url))
	if dir == "." || dir == "/" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
