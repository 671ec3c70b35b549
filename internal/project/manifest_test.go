package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keb/internal/project"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[package]
name = "demo"

[build]
main = "src/main.keb"
jobs = 4

[run]
max_steps = 500
`)
	m, err := project.LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "demo" || m.Jobs != 4 || m.MaxSteps != 500 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Main != filepath.Join(m.Root, "src", "main.keb") {
		t.Fatalf("main = %q", m.Main)
	}
	if m.MaxDiagnostics != project.DefaultMaxDiagnostics {
		t.Fatalf("max diagnostics = %d", m.MaxDiagnostics)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
		text string
	}{
		{name: "no package", body: "[build]\nmain = \"a.keb\"\n", want: project.ErrPackageSectionMissing},
		{name: "no name", body: "[package]\n[build]\nmain = \"a.keb\"\n", want: project.ErrPackageNameMissing},
		{name: "empty name", body: "[package]\nname = \" \"\n[build]\nmain = \"a.keb\"\n", want: project.ErrPackageNameMissing},
		{name: "no main", body: "[package]\nname = \"x\"\n", want: project.ErrBuildMainMissing},
		{name: "unknown key", body: "[package]\nname = \"x\"\nversion = 1\n[build]\nmain = \"a.keb\"\n", text: "package.version"},
		{name: "negative", body: "[package]\nname = \"x\"\n[build]\nmain = \"a.keb\"\njobs = -1\n", text: "negative"},
		{name: "syntax", body: "[package\n", text: "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.LoadManifest(writeManifest(t, t.TempDir(), tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.text != "" && !strings.Contains(err.Error(), tt.text) {
				t.Fatalf("err = %v, want mention of %q", err, tt.text)
			}
		})
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeManifest(t, root, "[package]\nname = \"x\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, ok, err := project.FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	wantAbs, _ := filepath.Abs(want)
	if got != wantAbs {
		t.Fatalf("got %q, want %q", got, wantAbs)
	}
	dir, ok, err := project.FindProjectRoot(nested)
	if err != nil || !ok || dir != filepath.Dir(wantAbs) {
		t.Fatalf("root = %q ok=%v err=%v", dir, ok, err)
	}
}
