package amalgam

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePair(t *testing.T, dir, source string) Pair {
	t.Helper()
	p := At(dir, "sqlite3.c")
	if err := os.WriteFile(p.C, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.H, []byte("/* header */\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAt(t *testing.T) {
	p := At("/work/sqlcipher", "sqlite3.c")
	if filepath.Base(p.C) != "sqlite3.c" || filepath.Base(p.H) != "sqlite3.h" {
		t.Errorf("At = %+v, want sqlite3.c/sqlite3.h", p)
	}
}

func TestVerify(t *testing.T) {
	p := writePair(t, t.TempDir(), "#ifdef SQLITE_HAS_CODEC\nint codec;\n#endif\n")
	if err := p.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyMissingCodecGuard(t *testing.T) {
	p := writePair(t, t.TempDir(), "int sqlite3_open(void);\n")
	err := p.Verify()
	if err == nil {
		t.Fatal("expected error for amalgamation without codec guard")
	}
	if !strings.Contains(err.Error(), CodecGuard) {
		t.Errorf("error %q does not name the missing guard", err)
	}
}

func TestVerifyMissingFiles(t *testing.T) {
	p := At(t.TempDir(), "sqlite3.c")
	if err := p.Verify(); err == nil {
		t.Fatal("expected error for missing pair")
	}

	// Header present, source missing.
	dir := t.TempDir()
	p = At(dir, "sqlite3.c")
	if err := os.WriteFile(p.H, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := p.Verify(); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestPublish(t *testing.T) {
	p := writePair(t, t.TempDir(), "#ifdef SQLITE_HAS_CODEC\n#endif\n")
	root := t.TempDir()
	slots := []string{"amalgamation", "src/python3/sqlcipher"}

	if err := p.Publish(root, slots); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, slot := range slots {
		for _, name := range []string{"sqlite3.c", "sqlite3.h"} {
			path := filepath.Join(root, filepath.FromSlash(slot), name)
			if _, err := os.Stat(path); err != nil {
				t.Errorf("missing %s", path)
			}
		}
	}
}

func TestPublishOverwritesStaleCopy(t *testing.T) {
	p := writePair(t, t.TempDir(), "fresh SQLITE_HAS_CODEC build\n")
	root := t.TempDir()
	slot := filepath.Join(root, "amalgamation")
	if err := os.MkdirAll(slot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(slot, "sqlite3.c"), []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := p.Publish(root, []string{"amalgamation"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(slot, "sqlite3.c"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fresh") {
		t.Error("stale slot copy was not replaced")
	}
}

func TestPublishMissingSource(t *testing.T) {
	p := At(t.TempDir(), "sqlite3.c")
	if err := p.Publish(t.TempDir(), []string{"amalgamation"}); err == nil {
		t.Fatal("expected error when pair does not exist")
	}
}
