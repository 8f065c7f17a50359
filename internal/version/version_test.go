package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit, origTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = origVersion, origCommit, origTime })

	Version, GitCommit, BuildTime = "unknown", "unknown", "unknown"
	if got := String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}

	Version, GitCommit, BuildTime = "v1.2.0", "abc123", "2026-01-02"
	if got, want := String(), "v1.2.0 (abc123) built 2026-01-02"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
