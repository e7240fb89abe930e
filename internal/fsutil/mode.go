// Package fsutil copies build outputs into package trees.
package fsutil

import (
	"fmt"
	"os"
)

// MakeWritable adds the owner write bit to file.
func MakeWritable(file string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	mode := fi.Mode().Perm()
	if mode&0o200 != 0 {
		return nil
	}
	if err := os.Chmod(file, mode|0o200); err != nil {
		return fmt.Errorf("making %s writable: %w", file, err)
	}
	return nil
}

// CopyWritable copies src to dst keeping the source mode, then makes dst
// writable so later tooling can rewrite it.
func CopyWritable(src, dst string) error {
	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := CopyFile(src, dst, fi.Mode().Perm()); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return MakeWritable(dst)
}
