package exporttest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewExport(t *testing.T) {
	root := NewExport(t, map[string]string{
		"EARoot/pkg/ClassA.htm": Page("Class A", "<p>a</p>"),
	})

	if filepath.Base(root) != RootName {
		t.Fatalf("root = %s, want base %s", root, RootName)
	}
	if info, err := os.Stat(filepath.Join(root, "EARoot")); err != nil || !info.IsDir() {
		t.Fatalf("EARoot missing: %v", err)
	}

	New(t, root).
		FileExists("EARoot/pkg/ClassA.htm").
		FileEquals("EARoot/pkg/ClassA.htm", "<html><head><title>Class A</title></head><body><p>a</p></body></html>").
		FileContains("EARoot/pkg/ClassA.htm", "<p>a</p>").
		WidgetCount("EARoot/pkg/ClassA.htm", 0)
}

func TestNewExportEmpty(t *testing.T) {
	root := NewExport(t, nil)
	entries, err := os.ReadDir(filepath.Join(root, "EARoot"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty EARoot, got %d entries", len(entries))
	}
}
