package autotools

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript drops an executable stand-in named name into dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestConfigurePassesFlagsAndAssignments(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "configure", `echo "$@" > configure.args`)

	a := New(dir)
	a.SetStdout(bytes.NewBuffer(nil))
	err := a.Configure(context.Background(),
		"--enable-tempstore=yes", "CFLAGS=-DSQLITE_HAS_CODEC", "LDFLAGS=-lcrypto -lsqlite3")
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "configure.args"))
	if err != nil {
		t.Fatal(err)
	}
	got := strings.TrimSpace(string(data))
	want := "--enable-tempstore=yes CFLAGS=-DSQLITE_HAS_CODEC LDFLAGS=-lcrypto -lsqlite3"
	if got != want {
		t.Errorf("configure argv = %q, want %q", got, want)
	}
}

func TestConfigureNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "configure", "exit 1")

	a := New(dir)
	if err := a.Configure(context.Background()); err == nil {
		t.Fatal("expected error for failing configure")
	}
}

func TestMakeRunsInTree(t *testing.T) {
	dir := t.TempDir()

	// Use a fake make so the test does not depend on a toolchain.
	bin := t.TempDir()
	writeScript(t, bin, "make", `echo "$@" > make.args; pwd > make.cwd`)
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	a := New(dir)
	a.SetStdout(bytes.NewBuffer(nil))
	if err := a.Make(context.Background(), "sqlite3.c"); err != nil {
		t.Fatalf("Make: %v", err)
	}

	args, err := os.ReadFile(filepath.Join(dir, "make.args"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(args)) != "sqlite3.c" {
		t.Errorf("make argv = %q, want sqlite3.c", strings.TrimSpace(string(args)))
	}

	cwd, err := os.ReadFile(filepath.Join(dir, "make.cwd"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(cwd)); filepath.Base(got) != filepath.Base(dir) {
		t.Errorf("make ran in %q, want %q", got, dir)
	}
}

func TestEnvReachesSubprocess(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "configure", `echo "$TCLSH" > configure.env`)

	a := New(dir)
	a.Env("TCLSH", "/opt/tcl/bin/tclsh")
	if err := a.Configure(context.Background()); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "configure.env"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "/opt/tcl/bin/tclsh" {
		t.Errorf("TCLSH = %q, want /opt/tcl/bin/tclsh", got)
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1", "B=2", "C=3"}
	got := mergeEnv(base, map[string]string{"B": "X", "D": "4"})

	m := make(map[string]string)
	for _, kv := range got {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	for key, want := range map[string]string{"A": "1", "B": "X", "C": "3", "D": "4"} {
		if m[key] != want {
			t.Errorf("%s = %q, want %q", key, m[key], want)
		}
	}
}
