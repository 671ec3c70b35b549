package version_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"keb/internal/version"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origV, origC, origD, origNoColor := version.Version, version.GitCommit, version.BuildDate, color.NoColor
	version.Version, version.GitCommit, version.BuildDate = v, commit, date
	color.NoColor = true
	t.Cleanup(func() {
		version.Version, version.GitCommit, version.BuildDate = origV, origC, origD
		color.NoColor = origNoColor
	})
}

func TestColoredPlain(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"snapshot", "snapshot"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			withVersion(t, tt.in, "", "")
			if got := version.Colored(); got != tt.want {
				t.Fatalf("Colored() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColoredAddsEscapes(t *testing.T) {
	withVersion(t, "1.2.3", "", "")
	color.NoColor = false
	if got := version.Colored(); !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes in %q", got)
	}
}

func TestLong(t *testing.T) {
	withVersion(t, "1.2.3", "abc123", "2024-01-15T10:30:00Z")
	got := version.Long()
	for _, want := range []string{"keb 1.2.3", "commit: abc123", "built:  2024-01-15T10:30:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("Long() misses %q:\n%s", want, got)
		}
	}

	withVersion(t, "1.2.3", "", "")
	if got := version.Long(); got != "keb 1.2.3" {
		t.Fatalf("Long() = %q", got)
	}
}
