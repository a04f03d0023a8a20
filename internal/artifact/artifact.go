// Package artifact vendors binding build output into the consuming
// project's source tree.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Collect copies every file under outputDirs/<subpkg>/ whose suffix is
// in exts into dest. All matches are enumerated up front: when any
// configured extension matches nothing, Collect fails before touching
// dest, so a failed run never leaves a partially populated
// destination. A missing extension is as fatal as an empty glob: an
// extension module without its loader stub (or the reverse) only
// fails much later, at import time in the consuming project. Later
// output dirs win on duplicate file names, matching the flat copy the
// consuming package expects.
func Collect(outputDirs []string, subpkg string, exts []string, dest string) ([]string, error) {
	var files []string
	perExt := make(map[string]int, len(exts))
	for _, dir := range outputDirs {
		matches, err := filepath.Glob(filepath.Join(dir, subpkg, "*"))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if ext, ok := matchExt(m, exts); ok {
				files = append(files, m)
				perExt[ext]++
			}
		}
	}
	for _, ext := range exts {
		if perExt[ext] == 0 {
			return nil, fmt.Errorf("expected build output not found: no %s/*%s under %s",
				subpkg, ext, strings.Join(outputDirs, ", "))
		}
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}
	for _, src := range files {
		if err := copyFile(src, filepath.Join(dest, filepath.Base(src))); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func matchExt(path string, exts []string) (string, bool) {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return ext, true
		}
	}
	return "", false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
