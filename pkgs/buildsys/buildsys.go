package buildsys

import (
	"context"
	"fmt"
	"strings"
)

// BuildSystem captures the part of a native build tool that staging relies
// on: configure a build tree from sources, then build it.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	BuildDir(dir string)

	// Define sets a configure-time variable; BuildType selects the
	// configuration both steps use.
	Define(key, val string)
	BuildType(name string)

	// Env sets a variable for the tool's child processes only.
	Env(key, val string)

	// Full argument lists of the two steps; args follow the tool's own.
	ConfigureArgs(args ...string) []string
	BuildArgs(args ...string) []string

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Build(ctx context.Context, args ...string) error

	// Where artifacts land, and the file recording the configured state.
	OutputDir() string
	CachePath() string
}

// RunError reports a build tool invocation that did not succeed.
type RunError struct {
	Cmd    []string
	Stderr string // captured standard error, if the step captures it
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Cmd, " "), e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
