package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// invoke runs prefctl against dataDir and returns what it wrote to stdout
// and stderr.
func invoke(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var stdout, stderr bytes.Buffer
	base := []string{"--data-dir", dataDir, "--name", "cli"}
	err := run(append(base, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func prefctl(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	out, _, err := invoke(t, dataDir, append([]string{"--log-level", "error"}, args...)...)
	return out, err
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	if _, err := prefctl(t, dir, "put", "int", "launches", "3"); err != nil {
		t.Fatal(err)
	}
	if _, err := prefctl(t, dir, "put", "--async", "string", "lang", "it"); err != nil {
		t.Fatal(err)
	}

	out, err := prefctl(t, dir, "get", "int", "launches")
	if err != nil || strings.TrimSpace(out) != "3" {
		t.Fatalf("get int = %q, %v", out, err)
	}
	out, err = prefctl(t, dir, "get", "string", "lang", "en")
	if err != nil || strings.TrimSpace(out) != "it" {
		t.Fatalf("get string = %q, %v", out, err)
	}
	out, err = prefctl(t, dir, "get", "long", "absent", "9")
	if err != nil || strings.TrimSpace(out) != "9" {
		t.Fatalf("get default = %q, %v", out, err)
	}

	out, err = prefctl(t, dir, "dump")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "launches\tint\t3") || !strings.Contains(out, "lang\tstring\tit") {
		t.Fatalf("dump = %q", out)
	}
	out, _ = prefctl(t, dir, "keys")
	if out != "lang:string\nlaunches:int\n" {
		t.Fatalf("keys = %q", out)
	}
	out, _ = prefctl(t, dir, "string")
	if strings.TrimSpace(out) != "{lang=it, launches=3}" {
		t.Fatalf("string = %q", out)
	}
}

func TestLogsStayOffStdout(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	if _, _, err := invoke(t, dir, "put", "int", "launches", "3"); err != nil {
		t.Fatal(err)
	}
	stdout, stderr, err := invoke(t, dir, "get", "int", "launches")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "3\n" {
		t.Fatalf("stdout = %q, want only the value", stdout)
	}
	if !strings.Contains(stderr, "data store created") {
		t.Fatalf("info log missing from stderr: %q", stderr)
	}

	_, stderr, err = invoke(t, dir, "get", "double", "launches")
	if err == nil {
		t.Fatal("unknown kind should fail")
	}
	if !strings.Contains(stderr, "unknown preference kind") {
		t.Fatalf("error not reported on stderr: %q", stderr)
	}
}

func TestInfo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	first, err := prefctl(t, dir, "info")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "datastore", "cli.preferences_db")
	if !strings.Contains(first, "path:     "+want) {
		t.Fatalf("info = %q, want path %s", first, want)
	}
	if !strings.Contains(first, "entries:  0") {
		t.Fatalf("info = %q", first)
	}

	second, _ := prefctl(t, dir, "info")
	if idLine(first) == "" || idLine(first) != idLine(second) {
		t.Fatalf("id changed across invocations: %q vs %q", idLine(first), idLine(second))
	}
}

func idLine(info string) string {
	for _, l := range strings.Split(info, "\n") {
		if strings.HasPrefix(l, "id:") {
			return strings.TrimSpace(strings.TrimPrefix(l, "id:"))
		}
	}
	return ""
}

func TestContainsAndRemove(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	if _, err := prefctl(t, dir, "put", "string", "token", "abc"); err != nil {
		t.Fatal(err)
	}
	out, _ := prefctl(t, dir, "contains", "token")
	if strings.TrimSpace(out) != "true" {
		t.Fatalf("contains = %q", out)
	}
	out, _ = prefctl(t, dir, "contains", "--kind", "int", "token")
	if strings.TrimSpace(out) != "false" {
		t.Fatalf("contains --kind int = %q", out)
	}

	if _, err := prefctl(t, dir, "rm", "token"); err != nil {
		t.Fatal(err)
	}
	out, _ = prefctl(t, dir, "contains", "--kind", "string", "token")
	if strings.TrimSpace(out) != "false" {
		t.Fatalf("after rm: contains = %q", out)
	}
}

func TestPutMetrics(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, err := prefctl(t, t.TempDir(), "put", "--async", "--metrics", "boolean", "beta", "true")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `prefstore_async_tasks_completed_total{dispatcher="helper"} 1`) {
		t.Fatalf("metrics output = %q", out)
	}
}

func TestBadInput(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if _, err := prefctl(t, dir, "put", "int", "n", "many"); err == nil {
		t.Fatal("non-numeric int should fail")
	}
	if _, err := prefctl(t, dir, "put", "double", "n", "1"); err == nil {
		t.Fatal("unknown kind should fail")
	}
	if _, err := prefctl(t, dir, "get", "int", "n", "x"); err == nil {
		t.Fatal("bad default should fail")
	}
}

func TestLegacyImport(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	legacyDir := filepath.Join(dir, "shared_prefs")
	if err := os.MkdirAll(legacyDir, 0700); err != nil {
		t.Fatal(err)
	}
	doc := `<map><long name="first_run" value="1700000000000"/></map>`
	if err := os.WriteFile(filepath.Join(legacyDir, "old.xml"), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := prefctl(t, dir, "--legacy", "old", "get", "long", "first_run")
	if err != nil || strings.TrimSpace(out) != "1700000000000" {
		t.Fatalf("get after import = %q, %v", out, err)
	}
}
