//go:build !windows

package fsutil

import (
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// CopyFile copies src to dst with mode perm. The content is written to a
// temporary file next to dst and renamed over it.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	t, err := renameio.TempFile("", dst)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, in); err != nil {
		return err
	}
	if err := t.Chmod(perm); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// WriteFile writes data to path through a temporary file and a rename.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
