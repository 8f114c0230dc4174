package version

import "testing"

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Default value stays "unknown" until set by build ldflags
	if Version != "unknown" {
		t.Logf("Version is: %s (set via ldflags)", Version)
	}

	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestFull(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, GitCommit, BuildTime = "v1.2.0", "unknown", "unknown"
	if got := Full(); got != "v1.2.0" {
		t.Errorf("Full() = %q, want %q", got, "v1.2.0")
	}

	GitCommit = "abc1234"
	BuildTime = "2026-08-01T12:00:00Z"
	want := "v1.2.0 (abc1234) built 2026-08-01T12:00:00Z"
	if got := Full(); got != want {
		t.Errorf("Full() = %q, want %q", got, want)
	}
}
