package filter

import (
	"io"
	"os"
	"path/filepath"
)

// partialSuffix marks a file being copied. It is renamed when completed.
const partialSuffix = ".incomplete"

// copyFile copies src to dst with its permission and modification time.
//
// The content is written to dst + partialSuffix first and renamed to dst,
// so dst is never left truncated.
//
// When dst exists, it does nothing and returns false.
func copyFile(src string, dst string) (bool, error) {
	if _, err := os.Lstat(dst); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	stat, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	partial := dst + partialSuffix
	out, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, stat.Mode().Perm())
	if err != nil {
		return false, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(partial)
		return false, err
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return false, err
	}
	if err := os.Chtimes(partial, stat.ModTime(), stat.ModTime()); err != nil {
		os.Remove(partial)
		return false, err
	}
	if err := os.Rename(partial, dst); err != nil {
		os.Remove(partial)
		return false, err
	}
	return true, nil
}
