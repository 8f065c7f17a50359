package integration

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/easearch/internal/build"
	"git.home.luguber.info/inful/easearch/internal/config"
)

// Summary is the stable part of a build result compared against golden files.
type Summary struct {
	Indexed   int            `json:"indexed"`
	Skipped   map[string]int `json:"skipped"`
	Ignored   int            `json:"ignored"`
	Rewritten []string       `json:"rewritten"`
	Assets    []string       `json:"assets"`
}

// setupExport copies a testdata export into <tmp>/SparxEA_HTML_Export so the
// pages can be rewritten in place.
func setupExport(t *testing.T, exportPath string) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "SparxEA_HTML_Export")
	err := copyDir(exportPath, root)
	require.NoError(t, err, "failed to copy test export")

	return root
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o750)
		}
		return copyFile(path, targetPath)
	})
}

func copyFile(src, dst string) error {
	// #nosec G304 -- test utility copying testdata
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 -- destination is a test temp dir
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}

func loadGoldenConfig(t *testing.T, configPath string) *config.Config {
	t.Helper()

	cfg, err := config.Load(configPath)
	require.NoError(t, err, "failed to load test config")

	return cfg
}

func runBuild(t *testing.T, cfg *config.Config) *build.Result {
	t.Helper()

	result, err := build.NewService().Run(context.Background(), build.Request{Config: cfg})
	require.NoError(t, err, "build failed")
	require.Equal(t, build.StatusSuccess, result.Status, "build should succeed")
	return result
}

func summarize(result *build.Result) Summary {
	s := Summary{
		Indexed:   len(result.Records),
		Skipped:   make(map[string]int, len(result.Skipped)),
		Ignored:   result.Ignored,
		Rewritten: result.Rewritten,
	}
	for reason, n := range result.Skipped {
		s.Skipped[string(reason)] = n
	}
	for _, a := range result.Assets {
		s.Assets = append(s.Assets, filepath.Base(a))
	}
	return s
}

// verifyFile compares actual against the golden file, rewriting it first when
// updateGolden is set.
func verifyFile(t *testing.T, actual []byte, goldenPath string, updateGolden bool) {
	t.Helper()

	if updateGolden {
		err := os.MkdirAll(filepath.Dir(goldenPath), 0o750)
		require.NoError(t, err, "failed to create golden directory")

		err = os.WriteFile(goldenPath, actual, 0o600)
		require.NoError(t, err, "failed to write golden file")

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden files
	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)
	require.Equal(t, string(expected), string(actual), "output does not match %s", goldenPath)
}

func verifySummary(t *testing.T, result *build.Result, goldenPath string, updateGolden bool) {
	t.Helper()

	data, err := json.MarshalIndent(summarize(result), "", "  ")
	require.NoError(t, err, "failed to marshal summary")
	verifyFile(t, append(data, '\n'), goldenPath, updateGolden)
}

func verifyIndex(t *testing.T, cfg *config.Config, goldenPath string, updateGolden bool) {
	t.Helper()

	// #nosec G304 -- test utility reading build output
	data, err := os.ReadFile(filepath.Join(cfg.ExportRoot, cfg.IndexFile))
	require.NoError(t, err, "failed to read generated index")
	verifyFile(t, data, goldenPath, updateGolden)
}

// snapshot reads every file below root keyed by slash separated path.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		// #nosec G304 -- test utility reading build output
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "failed to snapshot export")
	return files
}
