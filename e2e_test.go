//go:build e2e

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var kgvizBin string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "kgviz-e2e-*")
	if err != nil {
		panic("failed to create temp dir: " + err.Error())
	}
	defer os.RemoveAll(tmp)

	kgvizBin = filepath.Join(tmp, "kgviz")
	build := exec.Command("go", "build", "-ldflags", "-X github.com/msalah0e/kgviz/cmd.version=0.4.0-test", "-o", kgvizBin, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		panic("failed to build kgviz: " + err.Error())
	}

	os.Exit(m.Run())
}

// runKgviz executes the kgviz binary with an isolated HOME directory.
func runKgviz(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(kgvizBin, args...)
	home := t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"NO_COLOR=1",
	)

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run kgviz %v: %v", args, err)
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

const goodSnapshot = `{
  "nodes": [
    {"id": "ai", "name": "Artificial Intelligence", "type": "Technology"},
    {"id": "ml", "name": "Machine Learning", "type": "Concept", "description": "learning from data"},
    {"id": "turing", "name": "Alan Turing", "type": "Person"}
  ],
  "edges": [
    {"source": "ai", "target": "ml", "relationship": "includes"},
    {"source": "turing", "target": "ai", "relationship": "pioneered"}
  ]
}`

const danglingSnapshot = `{
  "nodes": [{"id": "a", "name": "A"}],
  "edges": [{"source": "a", "target": "ghost"}]
}`

func writeSnapshot(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- Core CLI ---

func TestE2E_Version(t *testing.T) {
	out, _, code := runKgviz(t, "--version")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "0.4.0") {
		t.Errorf("expected version output to contain '0.4.0', got %q", out)
	}
}

func TestE2E_Help(t *testing.T) {
	out, _, code := runKgviz(t, "--help")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, sub := range []string{"layout", "serve", "validate", "stats", "legend", "config"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q, got %q", sub, out)
		}
	}
}

// --- Snapshots ---

func TestE2E_ValidateGood(t *testing.T) {
	path := writeSnapshot(t, "graph.json", goodSnapshot)
	out, _, code := runKgviz(t, "validate", path)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "3 nodes, 2 edges, 3 types") {
		t.Errorf("expected counts in output, got %q", out)
	}
}

func TestE2E_ValidateDangling(t *testing.T) {
	path := writeSnapshot(t, "bad.json", danglingSnapshot)
	out, _, code := runKgviz(t, "validate", path)
	if code == 0 {
		t.Fatal("expected non-zero exit for dangling edge")
	}
	if !strings.Contains(out, "DanglingEdge") {
		t.Errorf("expected DanglingEdge in output, got %q", out)
	}
}

func TestE2E_Stats(t *testing.T) {
	path := writeSnapshot(t, "graph.json", goodSnapshot)
	out, _, code := runKgviz(t, "stats", path)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"Technology", "Artificial Intelligence", "0.7"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in stats output, got %q", want, out)
		}
	}
}

func TestE2E_Legend(t *testing.T) {
	out, _, code := runKgviz(t, "legend")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "#3B82F6") || !strings.Contains(out, "Organization") {
		t.Errorf("expected full palette, got %q", out)
	}
}

func TestE2E_LayoutWritesSVG(t *testing.T) {
	path := writeSnapshot(t, "graph.yaml", `
nodes:
  - {id: a, name: Alpha, type: Concept}
  - {id: b, name: Beta, type: Document}
edges:
  - {source: a, target: b, relationship: cites}
`)
	outDir := t.TempDir()
	out, _, code := runKgviz(t, "layout", path, "--out", outDir)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "graph.svg"))
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") || !strings.Contains(string(data), "cites") {
		t.Errorf("unexpected svg: %.200s", data)
	}
}

func TestE2E_LayoutMissingFile(t *testing.T) {
	_, _, code := runKgviz(t, "layout", filepath.Join(t.TempDir(), "nope.json"))
	if code == 0 {
		t.Fatal("expected non-zero exit for missing snapshot")
	}
}

// --- Config ---

func TestE2E_ConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kgviz.toml")
	_, _, code := runKgviz(t, "--config", path, "config", "init")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, _, code := runKgviz(t, "--config", path, "config", "show")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "charge_strength = -300.0") {
		t.Errorf("expected charge strength in config output, got %q", out)
	}
}
