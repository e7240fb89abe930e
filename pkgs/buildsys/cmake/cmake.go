package cmake

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/stager/pkgs/buildsys"
)

// CacheFile is the name of the file holding a build tree's configuration.
const CacheFile = "CMakeCache.txt"

// CMake wraps the CMake configure and build steps.
type CMake struct {
	SourceDir string
	buildDir  string
	buildType string
	Defines   map[string]string
	env       map[string]string

	// Stdout and Stderr receive the tool's output; nil means the process'
	// own streams.
	Stdout io.Writer
	Stderr io.Writer

	bin string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the project at sourceDir building into
// buildDir.
func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		SourceDir: sourceDir,
		buildDir:  buildDir,
		Defines:   map[string]string{},
		env:       map[string]string{},
		bin:       "cmake",
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) BuildDir(dir string) {
	c.buildDir = dir
}

// BuildType sets CMAKE_BUILD_TYPE and the configuration built.
func (c *CMake) BuildType(name string) {
	c.buildType = name
}

// Define adds a -D<key>=<value> definition. The cache entry's type is
// left to the project.
func (c *CMake) Define(key, value string) {
	if c.Defines == nil {
		c.Defines = map[string]string{}
	}
	c.Defines[key] = value
}

func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// CachePath returns the path of the build tree's cache file.
func (c *CMake) CachePath() string {
	return filepath.Join(c.OutputDir(), CacheFile)
}

// ConfigureArgs returns the arguments of the configure step. Definitions
// are sorted by name; args follow them unchanged.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.OutputDir()}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	return append(cmakeArgs, args...)
}

// BuildArgs returns the arguments of the build step; args come last.
func (c *CMake) BuildArgs(args ...string) []string {
	cmdArgs := []string{"--build", c.OutputDir()}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	return append(cmdArgs, args...)
}

// Configure generates the build tree. Standard error is captured and
// returned in a *buildsys.RunError on failure.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.OutputDir(), 0755); err != nil {
		return err
	}
	return run(ctx, c.bin, c.ConfigureArgs(args...), c.env, c.stdout(), c.stderr())
}

func (c *CMake) Build(ctx context.Context, args ...string) error {
	return run(ctx, c.bin, c.BuildArgs(args...), c.env, c.stdout(), c.stderr())
}

// OutputDir returns the build dir.
func (c *CMake) OutputDir() string {
	if c.buildDir != "" {
		return c.buildDir
	}
	return "build"
}

func (c *CMake) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *CMake) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *CMake) definesArgs() []string {
	defines := c.Defines
	if c.buildType != "" {
		defines = make(map[string]string, len(c.Defines)+1)
		for k, v := range c.Defines {
			defines[k] = v
		}
		defines["CMAKE_BUILD_TYPE"] = c.buildType
	}
	keys := make([]string, 0, len(defines))
	for k := range defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+defines[k])
	}
	return args
}

func run(ctx context.Context, bin string, args []string, env map[string]string, stdout, stderr io.Writer) error {
	var errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(&errBuf, stderr)
	if len(env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), env)
	}
	if err := cmd.Run(); err != nil {
		return &buildsys.RunError{
			Cmd:    append([]string{bin}, args...),
			Stderr: errBuf.String(),
			Err:    err,
		}
	}
	return nil
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
