// Package setuppy drives a distutils-style setup.py build, the
// two-step process the pysqlcipher3 binding uses.
package setuppy

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// SetupPy drives setup.py commands inside a binding source tree.
type SetupPy struct {
	python string
	dir    string
	stdout io.Writer
	stderr io.Writer
}

// New returns a SetupPy running python inside dir.
func New(python, dir string) *SetupPy {
	if python == "" {
		python = "python3"
	}
	return &SetupPy{
		python: python,
		dir:    dir,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetStdout redirects subprocess stdout.
func (s *SetupPy) SetStdout(w io.Writer) { s.stdout = w }

// SetStderr redirects subprocess stderr.
func (s *SetupPy) SetStderr(w io.Writer) { s.stderr = w }

// BuildAmalgamation runs "setup.py build_amalgamation", which
// regenerates the binding's combined source from the staged engine
// files.
func (s *SetupPy) BuildAmalgamation(ctx context.Context) error {
	return s.run(ctx, "build_amalgamation")
}

// Build runs "setup.py build", compiling the extension module.
func (s *SetupPy) Build(ctx context.Context) error {
	return s.run(ctx, "build")
}

// OutputDirs returns the build output directories matching glob
// (relative to the tree, e.g. "build/lib.*"). The directory names
// embed the target platform and runtime version, so they are
// discovered, never assumed. Zero matches is an error: a build that
// produced nothing must not look like success.
func (s *SetupPy) OutputDirs(glob string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, glob))
	if err != nil {
		return nil, err
	}
	dirs := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("no build output matching %s under %s", glob, s.dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (s *SetupPy) run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, s.python, "setup.py", command)
	cmd.Dir = s.dir
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	return cmd.Run()
}
