// Package build drives the native build that produces the artifacts a
// package ships: it assembles the configure and build arguments, runs the
// build tool and hands out the resulting artifact.Context.
package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/qiniu/x/log"

	"github.com/goplus/stager/internal/env"
	"github.com/goplus/stager/internal/manifest"
	"github.com/goplus/stager/internal/python"
	"github.com/goplus/stager/pkgs/artifact"
	"github.com/goplus/stager/pkgs/buildsys"
	"github.com/goplus/stager/pkgs/platform"
)

// CacheDirName is the build tree directory below the build temp dir.
const CacheDirName = "cmake-out"

// State is the orchestrator's lifecycle position.
type State int

const (
	Idle State = iota
	ConfigAssembled
	Configuring
	Building
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ConfigAssembled:
		return "config-assembled"
	case Configuring:
		return "configuring"
	case Building:
		return "building"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Settings are the environment knobs the orchestrator reads.
// *env.Settings implements it.
type Settings interface {
	PrefixPath() (string, bool)
	ConfigureArgs() []string
	BuildArgs() []string
	ToolExecutable() string
	Parallel() string
	Python() string
}

var _ Settings = (*env.Settings)(nil)

// Interpreter answers layout questions about the host python.
type Interpreter interface {
	Query(ctx context.Context) (*python.Info, error)
}

// Options are the command line choices of a build.
type Options struct {
	// SourceDir is the project root. It must be absolute.
	SourceDir string
	// BuildTemp is the scratch directory, relative to SourceDir unless
	// absolute.
	BuildTemp string
	Debug     bool
}

// Orchestrator runs one configure and build of the native project.
type Orchestrator struct {
	opts     Options
	settings Settings
	sel      *manifest.Selection
	py       Interpreter
	tool     buildsys.BuildSystem
	goos     string

	state    State
	info     *python.Info
	cacheDir string

	// cfgExtra and bldExtra are handed to the tool's steps; cfgArgs and
	// bldArgs are the full command lines they expand to.
	cfgExtra []string
	bldExtra []string
	cfgArgs  []string
	bldArgs  []string
	ctx      *artifact.Context
}

// New returns an idle orchestrator that builds the features enabled in sel
// with tool.
func New(opts Options, settings Settings, sel *manifest.Selection, py Interpreter, tool buildsys.BuildSystem) *Orchestrator {
	return &Orchestrator{
		opts:     opts,
		settings: settings,
		sel:      sel,
		py:       py,
		tool:     tool,
		goos:     runtime.GOOS,
	}
}

func (o *Orchestrator) State() State {
	return o.state
}

// CacheDir returns the build tree directory.
func (o *Orchestrator) CacheDir() string {
	buildTemp := o.opts.BuildTemp
	if !filepath.IsAbs(buildTemp) {
		buildTemp = filepath.Join(o.opts.SourceDir, buildTemp)
	}
	return filepath.Join(buildTemp, CacheDirName)
}

// Assemble sets up the build tool and computes the configure and build
// arguments. Identical inputs give identical argument lists.
func (o *Orchestrator) Assemble(ctx context.Context) error {
	if o.state != Idle {
		return fmt.Errorf("build: cannot assemble in state %s", o.state)
	}
	info, err := o.py.Query(ctx)
	if err != nil {
		log.Warnf("querying %s: %v", o.settings.Python(), err)
		info = &python.Info{}
	}
	o.info = info
	o.cacheDir = o.CacheDir()

	o.tool.Source(o.opts.SourceDir)
	o.tool.BuildDir(o.cacheDir)
	o.tool.BuildType(string(o.buildType()))
	for k, v := range o.defines() {
		o.tool.Define(k, v)
	}
	o.cfgExtra = slices.Clone(o.settings.ConfigureArgs())
	o.bldExtra = o.buildArgs()
	o.cfgArgs = o.tool.ConfigureArgs(o.cfgExtra...)
	o.bldArgs = o.tool.BuildArgs(o.bldExtra...)
	log.Debugf("configure args: %q", o.cfgArgs)
	log.Debugf("build args: %q", o.bldArgs)
	o.state = ConfigAssembled
	return nil
}

func (o *Orchestrator) buildType() artifact.BuildType {
	return artifact.BuildTypeOf(o.opts.Debug)
}

// defines returns the configure-time variables besides the build type.
func (o *Orchestrator) defines() map[string]string {
	defines := o.sel.Defines()
	defines["PYTHON_EXECUTABLE"] = o.settings.Python()
	defines["BUCK2"] = o.settings.ToolExecutable()
	if prefix, ok := o.settings.PrefixPath(); ok {
		defines["CMAKE_PREFIX_PATH"] = prefix
	} else if o.info.PureLib != "" {
		defines["CMAKE_PREFIX_PATH"] = o.info.PureLib
	}
	return defines
}

func (o *Orchestrator) buildArgs() []string {
	args := []string{"-j" + o.settings.Parallel()}
	for _, t := range o.sel.Targets() {
		args = append(args, "--target", t)
	}
	return append(args, o.settings.BuildArgs()...)
}

// Run configures and builds the project, assembling the arguments first if
// needed, and returns the context artifacts are resolved against.
func (o *Orchestrator) Run(ctx context.Context) (*artifact.Context, error) {
	if o.state == Idle {
		if err := o.Assemble(ctx); err != nil {
			return nil, err
		}
	}
	if o.state != ConfigAssembled {
		return nil, fmt.Errorf("build: cannot run in state %s", o.state)
	}

	o.state = Configuring
	if err := o.configure(ctx); err != nil {
		o.state = Failed
		return nil, err
	}

	o.state = Building
	if err := o.tool.Build(ctx, o.bldExtra...); err != nil {
		o.state = Failed
		return nil, &BuildError{Err: err}
	}

	o.ctx = o.newContext()
	o.state = Done
	return o.ctx, nil
}

func (o *Orchestrator) configure(ctx context.Context) error {
	if err := os.MkdirAll(o.tool.OutputDir(), 0755); err != nil {
		return err
	}
	// The cache is regenerated from scratch so that its state is
	// predictable.
	cacheFile := o.tool.CachePath()
	log.Infof("deleting %s", cacheFile)
	if err := os.Remove(cacheFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if sp := o.info.SitePackages; sp != "" {
		pythonPath := sp
		if old := os.Getenv("PYTHONPATH"); old != "" {
			pythonPath += string(os.PathListSeparator) + old
		}
		o.tool.Env("PYTHONPATH", pythonPath)
	}

	// The configure step may run buck2, which refuses to run as root
	// with a HOME it does not own.
	err := env.WithoutHomeIfRoot(func() error {
		return o.tool.Configure(ctx, o.cfgExtra...)
	})
	if err != nil {
		return newConfigurationError(err, o.cacheDir)
	}
	return nil
}

func (o *Orchestrator) newContext() *artifact.Context {
	c := &artifact.Context{
		BuildType:     o.buildType(),
		CacheDir:      o.cacheDir,
		GOOS:          o.goos,
		MultiConfig:   platform.MultiConfig(o.goos),
		WorkDir:       o.opts.SourceDir,
		ExtSuffix:     o.info.ExtSuffix,
		ConfigureArgs: append([]string(nil), o.cfgArgs...),
		BuildArgs:     append([]string(nil), o.bldArgs...),
	}
	if c.ExtSuffix == "" {
		c.ExtSuffix = platform.ExtensionSuffix(o.goos)
	}
	return c
}

// Context returns the context of a finished build, or nil before Done.
func (o *Orchestrator) Context() *artifact.Context {
	if o.state != Done {
		return nil
	}
	return o.ctx
}
