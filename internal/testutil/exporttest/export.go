// Package exporttest builds HTML export fixtures and asserts on their state
// after a run.
package exporttest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// RootName is the directory name fixtures are created under, matching a
// stock Enterprise Architect export.
const RootName = "SparxEA_HTML_Export"

// Page returns a minimal exported page.
func Page(title, body string) string {
	return "<html><head><title>" + title + "</title></head><body>" + body + "</body></html>"
}

// NewExport lays out files (slash separated paths relative to the export
// root) below a fresh temp dir and returns the export root. EARoot always
// exists, even when files is empty.
func NewExport(t *testing.T, files map[string]string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), RootName)
	if err := os.MkdirAll(filepath.Join(root, "EARoot"), 0o750); err != nil {
		t.Fatalf("create export: %v", err)
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

// Assertions checks files below an export root.
type Assertions struct {
	t    *testing.T
	root string
}

// New creates an Assertions helper for root.
func New(t *testing.T, root string) *Assertions {
	return &Assertions{t: t, root: root}
}

func (a *Assertions) read(rel string) (string, bool) {
	a.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(rel)))
	if err != nil {
		a.t.Errorf("Failed to read file %s: %v", rel, err)
		return "", false
	}
	return string(data), true
}

// FileExists validates that a file exists.
func (a *Assertions) FileExists(rel string) *Assertions {
	a.t.Helper()
	if _, err := os.Stat(filepath.Join(a.root, filepath.FromSlash(rel))); err != nil {
		a.t.Errorf("Expected file to exist: %s", rel)
	}
	return a
}

// FileContains validates that a file contains expected.
func (a *Assertions) FileContains(rel, expected string) *Assertions {
	a.t.Helper()
	content, ok := a.read(rel)
	if ok && !strings.Contains(content, expected) {
		a.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", rel, expected, content)
	}
	return a
}

// FileEquals validates that a file holds exactly expected.
func (a *Assertions) FileEquals(rel, expected string) *Assertions {
	a.t.Helper()
	content, ok := a.read(rel)
	if ok && content != expected {
		a.t.Errorf("File %s changed\nExpected:\n%s\nActual:\n%s", rel, expected, content)
	}
	return a
}

// WidgetCount validates how many search widgets a page carries.
func (a *Assertions) WidgetCount(rel string, want int) *Assertions {
	a.t.Helper()
	content, ok := a.read(rel)
	if !ok {
		return a
	}
	if got := strings.Count(content, `id="search-container"`); got != want {
		a.t.Errorf("Expected %d search widgets in %s, found %d", want, rel, got)
	}
	return a
}
