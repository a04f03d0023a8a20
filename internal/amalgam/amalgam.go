// Package amalgam handles the amalgamated engine source pair: the
// single .c/.h unit the engine's build emits, which must be verified
// for encryption support and published into every staging slot the
// binding's build tooling reads.
package amalgam

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CodecGuard is the compile guard that must appear in the amalgamated
// source when the encryption codec was enabled at configure time. Its
// absence means the engine was built without encryption, which is a
// flag problem, not a toolchain problem.
const CodecGuard = "SQLITE_HAS_CODEC"

// Pair is the amalgamated source/header pair at the root of the
// engine tree.
type Pair struct {
	C string
	H string
}

// At returns the pair the engine's amalgamation target emits into
// dir. target is the make target filename (e.g. "sqlite3.c"); the
// header sits next to it.
func At(dir, target string) Pair {
	base := target[:len(target)-len(filepath.Ext(target))]
	return Pair{
		C: filepath.Join(dir, base+".c"),
		H: filepath.Join(dir, base+".h"),
	}
}

// Verify checks that both files exist and that the source carries the
// encryption codec guard.
func (p Pair) Verify() error {
	if _, err := os.Stat(p.H); err != nil {
		return fmt.Errorf("amalgamation header: %w", err)
	}
	data, err := os.ReadFile(p.C)
	if err != nil {
		return fmt.Errorf("amalgamation source: %w", err)
	}
	if !bytes.Contains(data, []byte(CodecGuard)) {
		return fmt.Errorf("%s lacks the %s guard: engine was configured without the encryption codec", p.C, CodecGuard)
	}
	return nil
}

// Publish copies the pair into every staging slot, creating slots as
// needed. Slots are relative to root (the binding tree). The binding's
// build modes each read a different slot, so skipping one produces a
// build against a stale system engine; all slots get a copy.
func (p Pair) Publish(root string, slots []string) error {
	for _, slot := range slots {
		dir := filepath.Join(root, filepath.FromSlash(slot))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for _, src := range []string{p.C, p.H} {
			if err := copyFile(src, filepath.Join(dir, filepath.Base(src))); err != nil {
				return fmt.Errorf("publish to %s: %w", slot, err)
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
