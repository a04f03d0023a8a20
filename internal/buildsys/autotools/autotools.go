// Package autotools drives the configure/make workflow of a source
// tree, in-tree, the way the SQLCipher build expects.
package autotools

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// AutoTools drives Autotools-style builds rooted at a source tree.
type AutoTools struct {
	dir    string
	env    map[string]string
	stdout io.Writer
	stderr io.Writer
}

// New returns a ready-to-use AutoTools rooted at dir.
func New(dir string) *AutoTools {
	return &AutoTools{
		dir:    dir,
		env:    make(map[string]string),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetStdout redirects subprocess stdout.
func (a *AutoTools) SetStdout(w io.Writer) { a.stdout = w }

// SetStderr redirects subprocess stderr.
func (a *AutoTools) SetStderr(w io.Writer) { a.stderr = w }

// Env sets key=value for every command spawned later.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// Configure runs ./configure inside the source tree. Flag-style
// arguments and VAR=value assignments are both passed through, which
// is how non-default compile flags like the encryption codec reach
// the engine build.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	return a.run(ctx, "./configure", args)
}

// Make runs make with the given arguments, typically an amalgamation
// target.
func (a *AutoTools) Make(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", args)
}

func (a *AutoTools) run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = a.dir
	cmd.Stdout = a.stdout
	cmd.Stderr = a.stderr
	if len(a.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), a.env)
	}
	return cmd.Run()
}

// mergeEnv returns base with every key in overrides replaced or appended.
func mergeEnv(base []string, overrides map[string]string) []string {
	idx := make(map[string]int, len(base))
	for i, kv := range base {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = i
		}
	}
	for k, v := range overrides {
		if i, ok := idx[k]; ok {
			base[i] = k + "=" + v
		} else {
			base = append(base, k+"="+v)
		}
	}
	return base
}
