// Package layout places platform-independent resource files into a
// package tree at paths that differ from their source paths.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qiniu/x/log"

	"github.com/goplus/stager/internal/fsutil"
	"github.com/goplus/stager/internal/manifest"
)

// Entry maps a source file to a slash-separated destination relative to
// the package root.
type Entry struct {
	Src string
	Dst string
}

// Place copies every entry below dstRoot. Destinations are always
// created writable, whatever the source mode.
func Place(entries []Entry, dstRoot string) error {
	for _, e := range entries {
		dst := filepath.Join(dstRoot, filepath.FromSlash(e.Dst))
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		log.Debugf("copying %s -> %s", e.Src, dst)
		if err := fsutil.CopyFile(e.Src, dst, 0o644); err != nil {
			return fmt.Errorf("copying %s to %s: %w", e.Src, dst, err)
		}
	}
	return nil
}

// HeaderMappings scans dirs below srcRoot for files ending in ext and maps
// each into a parallel subtree below dstPrefix. A missing dir contributes
// nothing. Results are sorted by source path.
func HeaderMappings(srcRoot string, dirs []string, ext, dstPrefix string) ([]Entry, error) {
	var entries []Entry
	for _, dir := range dirs {
		root := filepath.Join(srcRoot, filepath.FromSlash(dir))
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == root && errors.Is(err, fs.ErrNotExist) {
					log.Debugf("skipping missing header dir %s", dir)
					return fs.SkipAll
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
				return nil
			}
			rel, err := filepath.Rel(srcRoot, p)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{
				Src: p,
				Dst: path.Join(dstPrefix, filepath.ToSlash(rel)),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Src < entries[j].Src
	})
	return entries, nil
}

// Table returns the resources and headers of m with sources below srcRoot.
func Table(m *manifest.Manifest, srcRoot string) ([]Entry, error) {
	entries := make([]Entry, 0, len(m.Resources))
	for _, r := range m.Resources {
		entries = append(entries, Entry{
			Src: filepath.Join(srcRoot, filepath.FromSlash(r.Src)),
			Dst: r.Dst,
		})
	}
	for _, h := range m.Headers {
		headers, err := HeaderMappings(srcRoot, h.Dirs, h.Ext, h.Dst)
		if err != nil {
			return nil, err
		}
		entries = append(entries, headers...)
	}
	return entries, nil
}
