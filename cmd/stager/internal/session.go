package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/schollz/progressbar/v3"

	"github.com/goplus/stager/internal/build"
	"github.com/goplus/stager/internal/env"
	"github.com/goplus/stager/internal/install"
	"github.com/goplus/stager/internal/layout"
	"github.com/goplus/stager/internal/manifest"
	"github.com/goplus/stager/internal/python"
	"github.com/goplus/stager/internal/version"
	"github.com/goplus/stager/pkgs/artifact"
	"github.com/goplus/stager/pkgs/buildsys/cmake"
)

// session is the state shared by the steps of one command.
type session struct {
	flags    *buildFlags
	root     string // project root, the working directory
	settings *env.Settings
	manifest *manifest.Manifest
	sel      *manifest.Selection
	python   *python.Interpreter
}

func newSession(flags *buildFlags) (*session, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	settings := env.Load()
	m, err := manifest.Load(settings.Manifest())
	if err != nil {
		return nil, err
	}
	return &session{
		flags:    flags,
		root:     root,
		settings: settings,
		manifest: m,
		sel:      m.Select(settings),
		python:   python.New(settings.Python()),
	}, nil
}

func (s *session) debug() (bool, error) {
	if s.flags.debug {
		return true, nil
	}
	return s.settings.Debug()
}

func (s *session) abs(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(s.root, dir)
}

// runBuild configures and builds the native project.
func (s *session) runBuild(ctx context.Context) (*artifact.Context, error) {
	debug, err := s.debug()
	if err != nil {
		return nil, err
	}
	tool := cmake.New(s.root, "")
	if !verbose {
		tool.Stdout = io.Discard
	}
	o := build.New(build.Options{
		SourceDir: s.root,
		BuildTemp: s.flags.temp(),
		Debug:     debug,
	}, s.settings, s.sel, s.python, tool)
	return o.Run(ctx)
}

// installArtifacts copies the enabled features' artifacts into the staged
// tree, or into the sources when installing in place.
func (s *session) installArtifacts(ctx context.Context, c *artifact.Context) error {
	ds, err := s.sel.Descriptors()
	if err != nil {
		return err
	}
	var inst install.Installer
	if s.flags.inplace {
		inst = &install.InPlace{
			Root:      s.root,
			Namespace: s.manifest.Package,
			Ctx:       c,
			Compile:   s.python.CompileFile,
		}
	} else {
		inst = &install.Staged{Root: s.abs(s.flags.lib()), Ctx: c}
	}

	var progress install.Progress
	if !verbose && len(ds) > 0 {
		bar := progressbar.NewOptions(len(ds),
			progressbar.OptionSetDescription("installing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		progress = func(*artifact.Descriptor, string) {
			_ = bar.Add(1)
		}
	}
	return install.InstallAll(ctx, inst, ds, progress)
}

// placeSources writes the version module and the resource files into the
// package directory.
func (s *session) placeSources(ctx context.Context) error {
	v, err := version.Compute(ctx, s.root, s.settings.Version(), nil)
	if err != nil {
		return err
	}
	dstRoot := s.root
	if !s.flags.inplace {
		dstRoot = filepath.Join(s.abs(s.flags.lib()), s.manifest.Package)
	}
	log.Infof("writing version %s", v.String)
	if err := v.WritePython(filepath.Join(dstRoot, "version.py")); err != nil {
		return fmt.Errorf("writing version file: %w", err)
	}
	entries, err := layout.Table(s.manifest, s.root)
	if err != nil {
		return err
	}
	return layout.Place(entries, dstRoot)
}
