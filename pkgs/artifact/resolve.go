package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/gobwas/glob"
	"github.com/goplus/stager/pkgs/platform"
)

// Expand substitutes the placeholder tokens of pattern. CacheDirToken
// becomes the cache directory; BuildTypeToken becomes the build type on
// multi-config generators and is dropped, with the separator before it,
// otherwise. Expand is idempotent.
func (c *Context) Expand(pattern string) string {
	if strings.Contains(pattern, CacheDirToken) {
		pattern = strings.ReplaceAll(pattern, CacheDirToken, filepath.ToSlash(c.CacheDir))
	}
	return c.expandBuildType(pattern)
}

func (c *Context) expandBuildType(pattern string) string {
	if c.MultiConfig {
		return strings.ReplaceAll(pattern, BuildTypeToken, string(c.BuildType))
	}
	pattern = strings.ReplaceAll(pattern, "/"+BuildTypeToken, "")
	return strings.ReplaceAll(pattern, BuildTypeToken, "")
}

// split returns the search root of pattern and the pattern relative to it.
func (c *Context) split(pattern string) (root, rel string, err error) {
	if strings.Contains(pattern, CacheDirToken) {
		if c.CacheDir == "" {
			return "", "", ErrNoCacheDir
		}
		root = c.CacheDir
		rel = strings.ReplaceAll(pattern, CacheDirToken+"/", "")
		rel = strings.ReplaceAll(rel, CacheDirToken, "")
	} else {
		root = c.WorkDir
		if root == "" {
			root = "."
		}
		rel = pattern
	}
	if root, err = filepath.Abs(root); err != nil {
		return "", "", err
	}
	return root, strings.TrimPrefix(c.expandBuildType(rel), "/"), nil
}

// Resolve returns the absolute path of the single file d.Source matches.
//
// For extension modules declared with a ".so" pattern, a failed lookup is
// retried once with ".dylib", since the build tool may follow the Mach-O
// convention while the interpreter expects the ELF one.
func Resolve(d *Descriptor, ctx *Context) (string, error) {
	file, err := resolve(d, d.Source, ctx)
	if err == nil {
		return file, nil
	}
	var re *ResolutionError
	if d.Kind == ExtensionModule && errors.As(err, &re) && strings.HasSuffix(d.Source, platform.SharedObjectSuffix) {
		alt := strings.TrimSuffix(d.Source, platform.SharedObjectSuffix) + platform.AlternateSharedObjectSuffix
		return resolve(d, alt, ctx)
	}
	return "", err
}

func resolve(d *Descriptor, pattern string, ctx *Context) (string, error) {
	root, rel, err := ctx.split(pattern)
	if err != nil {
		return "", fmt.Errorf("%s: %w", d.Name, err)
	}
	switch d.Kind {
	case Executable:
		rel = renameBase(rel, func(base string) string { return platform.ExecutableName(base, ctx.GOOS) })
	case DynamicLibrary:
		rel = renameBase(rel, func(base string) string { return platform.DynamicLibraryName(base, ctx.GOOS) })
	}
	matches, err := globFiles(root, rel)
	if err != nil {
		return "", fmt.Errorf("%s: %w", d.Name, err)
	}
	if len(matches) != 1 {
		return "", &ResolutionError{
			Name:     d.Name,
			Pattern:  pattern,
			Resolved: rel,
			Root:     root,
			Matches:  matches,
		}
	}
	return matches[0], nil
}

func renameBase(pattern string, rename func(string) string) string {
	dir, base := path.Split(pattern)
	return dir + rename(base)
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// segment is one slash-separated component of a pattern. A nil g means
// the component is literal.
type segment struct {
	lit string
	g   glob.Glob
}

func (s segment) recursive() bool {
	return s.lit == "**"
}

func compileSegments(pattern string) ([]segment, error) {
	parts := strings.Split(pattern, "/")
	segs := make([]segment, len(parts))
	for i, part := range parts {
		segs[i].lit = part
		if !hasMeta(part) {
			continue
		}
		g, err := glob.Compile(part)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		segs[i].g = g
	}
	return segs, nil
}

// globFiles returns the regular files under root matching the slash
// separated pattern, sorted. Symbolic links to directories are followed
// and "**" matches zero or more directories.
func globFiles(root, pattern string) ([]string, error) {
	pattern = path.Clean(pattern)
	if !hasMeta(pattern) {
		file := filepath.Join(root, filepath.FromSlash(pattern))
		if isRegular(file) {
			return []string{file}, nil
		}
		return nil, nil
	}

	segs, err := compileSegments(pattern)
	if err != nil {
		return nil, err
	}
	dirs := []string{root}
	for _, seg := range segs[:len(segs)-1] {
		if dirs, err = expandDirs(dirs, seg); err != nil {
			return nil, err
		}
	}

	var matches []string
	seen := make(map[string]bool)
	for _, dir := range dirs {
		names, err := matchNames(dir, segs[len(segs)-1])
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			p := filepath.Join(dir, name)
			if !seen[p] && isRegular(p) {
				seen[p] = true
				matches = append(matches, p)
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// expandDirs returns the directories reached from dirs through seg.
func expandDirs(dirs []string, seg segment) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, dir := range dirs {
		if seg.recursive() {
			if err := descend(dir, make(map[string]bool), add); err != nil {
				return nil, err
			}
			continue
		}
		names, err := matchNames(dir, seg)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if p := filepath.Join(dir, name); isDir(p) {
				add(p)
			}
		}
	}
	return out, nil
}

// descend reports dir and every directory below it. active holds the
// resolved paths on the current branch so that link cycles end.
func descend(dir string, active map[string]bool, add func(string)) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil || active[resolved] {
		return nil
	}
	active[resolved] = true
	defer delete(active, resolved)

	add(dir)
	entries, err := readDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() || (e.Type()&fs.ModeSymlink != 0 && isDir(p)) {
			if err := descend(p, active, add); err != nil {
				return err
			}
		}
	}
	return nil
}

// matchNames returns the entry names of dir that seg matches.
func matchNames(dir string, seg segment) ([]string, error) {
	if seg.g == nil {
		if _, err := os.Lstat(filepath.Join(dir, seg.lit)); err != nil {
			return nil, nil
		}
		return []string{seg.lit}, nil
	}
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if seg.g.Match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// readDir is os.ReadDir with a missing directory read as empty.
func readDir(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && (errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)) {
		return nil, nil
	}
	return entries, err
}

func isDir(file string) bool {
	fi, err := os.Stat(file)
	return err == nil && fi.IsDir()
}

func isRegular(file string) bool {
	fi, err := os.Stat(file)
	return err == nil && fi.Mode().IsRegular()
}
