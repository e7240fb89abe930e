// Package install copies resolved build outputs into a staged package tree
// or next to the sources of an editable checkout.
package install

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/stager/internal/fsutil"
	"github.com/goplus/stager/pkgs/artifact"
)

// Installer installs a single artifact and returns the path it wrote.
type Installer interface {
	Install(ctx context.Context, d *artifact.Descriptor) (string, error)
}

// Progress is called after each artifact is installed.
type Progress func(d *artifact.Descriptor, dst string)

// InstallAll installs ds in order and stops at the first failure.
func InstallAll(ctx context.Context, inst Installer, ds []*artifact.Descriptor, progress Progress) error {
	for _, d := range ds {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, err := inst.Install(ctx, d)
		if err != nil {
			return fmt.Errorf("installing %s: %w", d.Name, err)
		}
		if progress != nil {
			progress(d, dst)
		}
	}
	return nil
}

// Staged installs artifacts below the root of a package tree.
type Staged struct {
	Root string
	Ctx  *artifact.Context
}

// Install resolves d, copies it to its staged destination and makes the
// copy writable.
func (s *Staged) Install(ctx context.Context, d *artifact.Descriptor) (string, error) {
	src, err := artifact.Resolve(d, s.Ctx)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.Root, filepath.FromSlash(stagedPath(d, src, s.Ctx.ExtSuffix)))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	log.Infof("copying %s -> %s", src, dst)
	if err := fsutil.CopyWritable(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// stagedPath returns the slash-separated path of d's copy relative to the
// package tree root.
func stagedPath(d *artifact.Descriptor, src, extSuffix string) string {
	switch {
	case d.Kind == artifact.ExtensionModule:
		return strings.ReplaceAll(d.Dest, ".", "/") + extSuffix
	case d.IsDirDest():
		return path.Join(d.Dest, filepath.Base(src))
	default:
		return d.Dest
	}
}
