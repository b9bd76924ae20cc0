package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/objbundle/internal/release"
)

func seedTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"include/Mesh.hpp":    "#pragma once\n#include \"ext/glm.hpp\"\nstruct Mesh {};\n",
		"include/ext/glm.hpp": "// glm\n",
		"src/Mesh.cpp":        "#include \"Mesh.hpp\"\n",
	}
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunBuildsRelease(t *testing.T) {
	root := seedTree(t)
	code, stdout, stderr := runCLI(t, "-project", root, "v_1_0_0")
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "v_1_0_0") {
		t.Fatalf("summary missing version: %s", stdout)
	}
	data, err := os.ReadFile(filepath.Join(root, "release", "obj_parser.hpp"))
	if err != nil {
		t.Fatalf("read bundle: %v", err)
	}
	if !strings.HasPrefix(string(data), "// OBJ Parser Release v_1_0_0\n#include \"ext/glm.hpp\"\nstruct Mesh {};\n") {
		t.Fatalf("unexpected bundle: %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "release", "ext", "glm.hpp")); err != nil {
		t.Fatalf("vendor file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, ".objbundle", "logs", "release.log")); err != nil {
		t.Fatalf("release log missing: %v", err)
	}
}

func TestRunAbortExitCode(t *testing.T) {
	root := seedTree(t)
	if err := os.MkdirAll(filepath.Join(root, "release"), 0o755); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-project", root, "-on-existing", "abort", "1.0.0")
	if code != exitOutputSet {
		t.Fatalf("exit = %d, want %d", code, exitOutputSet)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Fatalf("expected diagnostic, got %q", stderr)
	}
}

func TestRunVersionHandling(t *testing.T) {
	root := seedTree(t)
	if code, _, _ := runCLI(t, "-project", root); code != exitUsage {
		t.Fatalf("missing version: exit = %d, want %d", code, exitUsage)
	}
	if code, _, _ := runCLI(t, "-project", root, "a", "b"); code != exitUsage {
		t.Fatalf("extra args: exit = %d, want %d", code, exitUsage)
	}
	if err := os.WriteFile(filepath.Join(root, "release.txt"), []byte("v_0_0_2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-project", root, "-readme=false")
	if code != exitOK {
		t.Fatalf("version file: exit = %d, stderr = %s", code, stderr)
	}
	data, err := os.ReadFile(filepath.Join(root, "release", "obj_parser.hpp"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "// OBJ Parser Release v_0_0_2\n") {
		t.Fatalf("expected tag from release.txt, got %q", data)
	}
	if _, err := os.Stat(filepath.Join(root, "release", "README.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected no readme with -readme=false, got %v", err)
	}
}

func TestRunInitAndClean(t *testing.T) {
	root := seedTree(t)
	code, stdout, _ := runCLI(t, "-project", root, "-init")
	if code != exitOK || !strings.Contains(stdout, "objbundle.yaml") {
		t.Fatalf("init: exit = %d, out = %s", code, stdout)
	}
	if err := os.MkdirAll(filepath.Join(root, "dist", "old"), 0o755); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "-project", root, "-out", "dist", "-clean")
	if code != exitOK {
		t.Fatalf("clean: exit = %d, stderr = %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(root, "dist")); !os.IsNotExist(err) {
		t.Fatalf("expected dist removed, got %v", err)
	}
}

func TestRunRefusesOutputOverInputs(t *testing.T) {
	root := seedTree(t)
	keep := filepath.Join(root, "KEEPME.txt")
	if err := os.WriteFile(keep, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, out := range []string{root, "..", "include"} {
		if code, _, _ := runCLI(t, "-project", root, "-out", out, "1.0.0"); code != exitUsage {
			t.Fatalf("-out %s: exit = %d, want %d", out, code, exitUsage)
		}
	}
	if code, _, _ := runCLI(t, "-project", root, "-out", root, "-clean"); code != exitUsage {
		t.Fatalf("-clean over project root: exit = %d, want %d", code, exitUsage)
	}
	for _, path := range []string{keep, filepath.Join(root, "include", "Mesh.hpp"), filepath.Join(root, "src", "Mesh.cpp")} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to survive: %v", path, err)
		}
	}
}

func TestRunPrintsLogTail(t *testing.T) {
	root := seedTree(t)
	if code, _, stderr := runCLI(t, "-project", root, "1.0.0"); code != exitOK {
		t.Fatalf("release: exit = %d, stderr = %s", code, stderr)
	}
	code, stdout, _ := runCLI(t, "-project", root, "-log", "1")
	if code != exitOK {
		t.Fatalf("log: exit = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "showing 1 of") {
		t.Fatalf("unexpected log output: %q", stdout)
	}
	if !strings.Contains(lines[1], "INFO") {
		t.Fatalf("expected an INFO entry, got %q", lines[1])
	}
}

func TestRunPlanCancelWritesNothing(t *testing.T) {
	root := seedTree(t)
	var seen release.Plan
	previous := confirmPlan
	t.Cleanup(func() { confirmPlan = previous })
	confirmPlan = func(plan release.Plan, version, dir string) (bool, error) {
		seen = plan
		return false, nil
	}
	code, stdout, _ := runCLI(t, "-project", root, "-plan", "1.0.0")
	if code != exitOK || !strings.Contains(stdout, "cancelled") {
		t.Fatalf("exit = %d, out = %s", code, stdout)
	}
	if len(seen.Headers) != 1 || len(seen.Sources) != 1 {
		t.Fatalf("unexpected plan: %+v", seen)
	}
	if _, err := os.Stat(filepath.Join(root, "release")); !os.IsNotExist(err) {
		t.Fatalf("cancelled plan must not create output, got %v", err)
	}
}

func TestRunBadFlags(t *testing.T) {
	root := seedTree(t)
	if code, _, _ := runCLI(t, "-no-such-flag"); code != exitUsage {
		t.Fatalf("unknown flag: exit = %d", code)
	}
	if code, _, _ := runCLI(t, "-project", root, "-on-existing", "skip", "1"); code != exitUsage {
		t.Fatalf("bad policy: exit = %d", code)
	}
	if code, _, _ := runCLI(t, "-project", root, "-config", "missing.yaml", "1"); code != exitFailure {
		t.Fatalf("missing config: exit = %d", code)
	}
}
