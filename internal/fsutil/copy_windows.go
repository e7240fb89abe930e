package fsutil

import (
	"io"
	"os"
)

// CopyFile copies src to dst with mode perm.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// A read-only destination from an earlier run cannot be truncated.
	if fi, err := os.Stat(dst); err == nil && fi.Mode().Perm()&0o200 == 0 {
		if err := os.Chmod(dst, fi.Mode().Perm()|0o200); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, perm)
}

// WriteFile writes data to path.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
