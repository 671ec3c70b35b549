package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keb/internal/ssa"
)

const scenarioAdd = `let add = (a: u32, b: u32) => a + b;
let main = () => print add(8, 4);`

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(context.Background(), append([]string{"--color", "off"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunPrintsResult(t *testing.T) {
	file := writeSource(t, t.TempDir(), "add.keb", scenarioAdd)
	code, stdout, stderr := runCLI(t, "run", file)
	if code != 0 || stdout != "12\n" {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
}

func TestRunTimings(t *testing.T) {
	file := writeSource(t, t.TempDir(), "add.keb", scenarioAdd)
	code, stdout, stderr := runCLI(t, "--timings", "run", file)
	if code != 0 || stdout != "12\n" {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
	for _, want := range []string{"parse", "run", "total"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("timings miss %q: %q", want, stderr)
		}
	}
}

func TestRunStepLimit(t *testing.T) {
	file := writeSource(t, t.TempDir(), "spin.keb", "let main = () => loop print 1;")
	code, _, stderr := runCLI(t, "run", "--max-steps", "100", file)
	if code != 1 || !strings.Contains(stderr, "VM1002") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestRunFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.keb", scenarioAdd)
	writeSource(t, dir, "keb.toml", "[package]\nname = \"demo\"\n\n[build]\nmain = \"main.keb\"\n")
	t.Chdir(dir)

	code, stdout, stderr := runCLI(t, "run")
	if code != 0 || stdout != "12\n" {
		t.Fatalf("code=%d stdout=%q stderr=%q", code, stdout, stderr)
	}
}

func TestRunWithoutTarget(t *testing.T) {
	t.Chdir(t.TempDir())
	code, _, stderr := runCLI(t, "run")
	if code != 1 || !strings.Contains(stderr, "no keb.toml found") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "good.keb", scenarioAdd)
	writeSource(t, dir, "bad.keb", "let main = () => print missing;")

	code, stdout, stderr := runCLI(t, "check", "--ui", "off", dir)
	if code != 1 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(stderr, "ERROR KEB3005") || !strings.Contains(stderr, "bad.keb:1:24") {
		t.Fatalf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout, "checked 2 files, 1 with errors") {
		t.Fatalf("stdout = %q", stdout)
	}
}

func TestCheckPathsRelativeToProjectRoot(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "keb.toml", "[package]\nname = \"demo\"\n\n[build]\nmain = \"src/bad.keb\"\n")
	src := filepath.Join(dir, "src")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, src, "bad.keb", "let main = () => print missing;")
	t.Chdir(src)

	code, _, stderr := runCLI(t, "check", "--ui", "off", "bad.keb")
	if code != 1 || !strings.Contains(stderr, "src/bad.keb:1:24") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestCheckJSON(t *testing.T) {
	file := writeSource(t, t.TempDir(), "bad.keb", "let main = () => print missing;")
	code, stdout, _ := runCLI(t, "check", "--format", "json", file)
	if code != 1 {
		t.Fatalf("code = %d", code)
	}
	var out struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("%v: %s", err, stdout)
	}
	if out.Count != 1 || out.Diagnostics[0].Code != "KEB3005" {
		t.Fatalf("out = %+v", out)
	}
}

func TestCheckRejectsBadFlags(t *testing.T) {
	file := writeSource(t, t.TempDir(), "a.keb", scenarioAdd)
	for _, args := range [][]string{
		{"check", "--format", "xml", file},
		{"check", "--stage", "codegen", file},
		{"check", "--ui", "maybe", file},
	} {
		if code, _, stderr := runCLI(t, args...); code != 1 || !strings.Contains(stderr, "error:") {
			t.Errorf("%v: code=%d stderr=%q", args, code, stderr)
		}
	}
}

func TestDump(t *testing.T) {
	file := writeSource(t, t.TempDir(), "add.keb", scenarioAdd)
	tests := []struct {
		ir   string
		want string
	}{
		{"ssa", "fn @"},
		{"sem", "(u32, u32) -> u32"},
		{"ast", "add"},
	}
	for _, tt := range tests {
		t.Run(tt.ir, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "dump", "--ir", tt.ir, file)
			if code != 0 || !strings.Contains(stdout, tt.want) {
				t.Fatalf("code=%d stderr=%q stdout:\n%s", code, stderr, stdout)
			}
		})
	}
}

func TestBuildWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	file := writeSource(t, dir, "add.keb", scenarioAdd)
	code, stdout, stderr := runCLI(t, "build", "--aggregates", file)
	if code != 0 {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
	if !strings.Contains(stdout, "(u32, u32)") || !strings.Contains(stdout, "add.kebc") {
		t.Fatalf("stdout = %q", stdout)
	}

	f, err := os.Open(filepath.Join(dir, "add.kebc"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	m, err := ssa.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Function("main"); !ok {
		t.Fatal("artifact has no main")
	}
}

func TestTraceToStderr(t *testing.T) {
	file := writeSource(t, t.TempDir(), "add.keb", scenarioAdd)
	code, _, stderr := runCLI(t, "--trace", "-", "check", file)
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	for _, want := range []string{"begin", "compile", "parse", "validate"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("trace misses %q:\n%s", want, stderr)
		}
	}
}

func TestTraceRingDumpedOnFailure(t *testing.T) {
	file := writeSource(t, t.TempDir(), "bad.keb", "let main = () => print missing;")
	code, _, stderr := runCLI(t, "--trace-level", "phase", "--trace-mode", "ring", "run", file)
	if code != 1 || !strings.Contains(stderr, "last events before failure") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestVersionJSON(t *testing.T) {
	code, stdout, _ := runCLI(t, "version", "--format", "json")
	var payload versionPayload
	if code != 0 || json.Unmarshal([]byte(stdout), &payload) != nil || payload.Tool != "keb" {
		t.Fatalf("code=%d stdout=%q", code, stdout)
	}
}
