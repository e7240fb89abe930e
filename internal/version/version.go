// Package version computes the version string of the package being built.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goplus/stager/internal/fsutil"
)

// File is the name of the version file at the source root.
const File = "version.txt"

// Info is the version of one build.
type Info struct {
	// String is the full version, e.g. "0.7.0+1a2b3c4".
	String string
	// GitHash is the full commit hash of the source tree, or "" if unknown.
	GitHash string
}

// HeadFunc returns the commit hash checked out in dir.
type HeadFunc func(ctx context.Context, dir string) (string, error)

// Compute derives the version of the source tree at root. A non-empty
// override wins; otherwise the version file's content is used, suffixed
// with the short commit hash when one is known.
func Compute(ctx context.Context, root, override string, head HeadFunc) (*Info, error) {
	if head == nil {
		head = GitHead
	}
	hash, err := head(ctx, root)
	if err != nil {
		hash = ""
	}
	hash = strings.TrimSpace(hash)

	if v := strings.TrimSpace(override); v != "" {
		return &Info{String: v, GitHash: hash}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, File))
	if err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	v := strings.TrimSpace(string(data))
	if hash != "" {
		v += "+" + hash[:min(7, len(hash))]
	}
	return &Info{String: v, GitHash: hash}, nil
}

// GitHead asks git for the commit checked out in dir.
func GitHead(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

var pyTemplate = template.Must(template.New("version.py").Parse(`from typing import Optional
__all__ = ["__version__", "git_version"]
__version__ = {{printf "%q" .String}}
git_version: Optional[str] = {{if .GitHash}}{{printf "%q" .GitHash}}{{else}}None{{end}}
`))

// WritePython writes a python module exposing the version.
func (v *Info) WritePython(path string) error {
	var buf bytes.Buffer
	if err := pyTemplate.Execute(&buf, v); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fsutil.WriteFile(path, buf.Bytes(), 0o644)
}
