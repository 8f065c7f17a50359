package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestWalkIsLexicalAndRecursive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"EARoot/b.htm":            "b",
		"EARoot/a.htm":            "a",
		"EARoot/pkg/ClassA.htm":   "c",
		"EARoot/pkg/sub/EA9.html": "d",
		"EARoot/zeta/diagram.htm": "e",
		"EARoot/css/style.css":    "f",
		"outside/ignored.htm":     "g",
	})

	layout := NewLayout(root, "EARoot")
	require.NoError(t, layout.Check())

	files, err := layout.Walk()
	require.NoError(t, err)

	var urls []string
	for _, f := range files {
		urls = append(urls, f.URL)
	}
	require.Equal(t, []string{
		"EARoot/a.htm",
		"EARoot/b.htm",
		"EARoot/css/style.css",
		"EARoot/pkg/ClassA.htm",
		"EARoot/pkg/sub/EA9.html",
		"EARoot/zeta/diagram.htm",
	}, urls)
	require.Equal(t, "ClassA.htm", files[3].Name)
}

func TestWalkEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "EARoot"), 0o755))

	files, err := NewLayout(root, "EARoot").Walk()
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestCheckMissingDirectories(t *testing.T) {
	root := t.TempDir()

	err := NewLayout(filepath.Join(root, "missing"), "EARoot").Check()
	require.True(t, errors.Is(err, ErrExportRootNotFound))

	err = NewLayout(root, "EARoot").Check()
	require.True(t, errors.Is(err, ErrHTMLDirNotFound))

	writeTree(t, root, map[string]string{"EARoot": "not a dir"})
	err = NewLayout(root, "EARoot").Check()
	require.True(t, errors.Is(err, ErrHTMLDirNotFound))
	require.True(t, errors.Is(err, ErrNotADirectory))
}

func TestRelativeURL(t *testing.T) {
	root := filepath.Join("srv", "SparxEA_HTML_Export")

	url, err := RelativeURL(root, filepath.Join(root, "EARoot", "pkg", "ClassA.htm"))
	require.NoError(t, err)
	require.Equal(t, "EARoot/pkg/ClassA.htm", url)

	_, err = RelativeURL(root, filepath.Join("srv", "other", "a.htm"))
	require.ErrorIs(t, err, ErrOutsideRoot)
}

func TestRelativeURLIsInjective(t *testing.T) {
	root := "export"
	seen := map[string]string{}
	for _, p := range []string{"EARoot/a.htm", "EARoot/A.htm", "EARoot/x/a.htm", "EARoot/x_a.htm"} {
		url, err := RelativeURL(root, filepath.Join(root, filepath.FromSlash(p)))
		require.NoError(t, err)
		_, dup := seen[url]
		require.False(t, dup, "duplicate url %s", url)
		seen[url] = p
	}
}

func TestDepth(t *testing.T) {
	require.Equal(t, 0, Depth("search.htm"))
	require.Equal(t, 1, Depth("EARoot/EA1.htm"))
	require.Equal(t, 3, Depth("EARoot/EA1/EA2/EA3.htm"))
}
