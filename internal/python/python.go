// Package python queries the host interpreter the package is built for.
package python

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Info describes the host interpreter's installation layout.
type Info struct {
	// ExtSuffix is the file suffix of native extension modules.
	ExtSuffix string `json:"ext_suffix"`
	// PureLib is the directory pure-python packages install to.
	PureLib string `json:"purelib"`
	// SitePackages is the first site-packages directory.
	SitePackages string `json:"site_packages"`
}

const queryScript = `import json, site, sysconfig
sp = site.getsitepackages() if hasattr(site, "getsitepackages") else []
print(json.dumps({
    "ext_suffix": sysconfig.get_config_var("EXT_SUFFIX") or "",
    "purelib": sysconfig.get_paths()["purelib"],
    "site_packages": sp[0] if sp else "",
}))`

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Interpreter runs a python executable.
type Interpreter struct {
	Path string
	Run  Runner
}

// New returns an interpreter for the executable at path.
func New(path string) *Interpreter {
	return &Interpreter{Path: path, Run: execRun}
}

// Query asks the interpreter for its layout.
func (p *Interpreter) Query(ctx context.Context) (*Info, error) {
	out, err := p.run(ctx, "-c", queryScript)
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(bytes.TrimSpace(out), &info); err != nil {
		return nil, fmt.Errorf("%s: decoding layout: %w", p.Path, err)
	}
	return &info, nil
}

// CompileFile byte-compiles a source file, leaving the cache next to it.
func (p *Interpreter) CompileFile(ctx context.Context, file string) error {
	_, err := p.run(ctx, "-m", "py_compile", file)
	return err
}

func (p *Interpreter) run(ctx context.Context, args ...string) ([]byte, error) {
	run := p.Run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, p.Path, args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", p.Path, args[0], err)
	}
	return out, nil
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}
