package build

import (
	"context"
	"errors"

	"github.com/goplus/stager/internal/python"
	"github.com/goplus/stager/pkgs/buildsys/cmake"
)

// fakeTool is a cmake wrapper that records the command lines of its steps
// instead of running them.
type fakeTool struct {
	*cmake.CMake
	env          map[string]string
	configured   [][]string
	built        [][]string
	configureErr error
	buildErr     error

	// onConfigure runs inside Configure, e.g. to inspect the build tree.
	onConfigure func()
}

func newFakeTool() *fakeTool {
	return &fakeTool{CMake: cmake.New("", "")}
}

func (f *fakeTool) Env(key, val string) {
	if f.env == nil {
		f.env = map[string]string{}
	}
	f.env[key] = val
}

func (f *fakeTool) Configure(ctx context.Context, args ...string) error {
	f.configured = append(f.configured, f.ConfigureArgs(args...))
	if f.onConfigure != nil {
		f.onConfigure()
	}
	return f.configureErr
}

func (f *fakeTool) Build(ctx context.Context, args ...string) error {
	f.built = append(f.built, f.BuildArgs(args...))
	return f.buildErr
}

type fakeSettings struct {
	prefix        string
	prefixSet     bool
	configureArgs []string
	buildArgs     []string
	tool          string
	parallel      string
}

func (s *fakeSettings) PrefixPath() (string, bool) { return s.prefix, s.prefixSet }
func (s *fakeSettings) ConfigureArgs() []string    { return s.configureArgs }
func (s *fakeSettings) BuildArgs() []string        { return s.buildArgs }
func (s *fakeSettings) ToolExecutable() string     { return s.tool }
func (s *fakeSettings) Python() string             { return "/usr/bin/python3" }

func (s *fakeSettings) Parallel() string {
	if s.parallel == "" {
		return "3"
	}
	return s.parallel
}

type fakePython struct {
	info *python.Info
}

func (p *fakePython) Query(context.Context) (*python.Info, error) {
	if p.info == nil {
		return nil, errors.New("python3: not found")
	}
	return p.info, nil
}
