// Package env reads the build settings recognized in the process
// environment and guards temporary changes to it.
package env

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	keyDebug         = "debug"
	keyVersion       = "version"
	keyPrefixPath    = "prefix_path"
	keyConfigureArgs = "configure_args"
	keyBuildArgs     = "build_args"
	keyTool          = "tool"
	keyParallel      = "parallel"
	keyPython        = "python"
	keyManifest      = "manifest"
)

// Settings holds the environment-provided knobs of a build.
type Settings struct {
	v *viper.Viper
}

// Load binds the recognized environment variables. Values are read when
// the accessors are called.
func Load() *Settings {
	v := viper.New()
	// A variable set to "" is not the same as an unset one: it turns
	// feature toggles off and overrides defaults.
	v.AllowEmptyEnv(true)

	_ = v.BindEnv(keyDebug, "DEBUG")
	_ = v.BindEnv(keyVersion, "BUILD_VERSION")
	_ = v.BindEnv(keyPrefixPath, "CMAKE_PREFIX_PATH")
	_ = v.BindEnv(keyConfigureArgs, "CMAKE_ARGS")
	_ = v.BindEnv(keyBuildArgs, "CMAKE_BUILD_ARGS")
	_ = v.BindEnv(keyTool, "BUCK2_EXECUTABLE", "BUCK2", "BUCK")
	_ = v.BindEnv(keyParallel, "CMAKE_BUILD_PARALLEL_LEVEL")
	_ = v.BindEnv(keyPython, "PYTHON_EXECUTABLE")
	_ = v.BindEnv(keyManifest, "STAGER_MANIFEST")

	if runtime.GOOS == "windows" {
		v.SetDefault(keyPython, "python")
	} else {
		v.SetDefault(keyPython, "python3")
	}
	return &Settings{v: v}
}

// Enabled reports whether the feature toggle name is on. Unset means def;
// "", "0" and "OFF" mean off; anything else means on.
func (s *Settings) Enabled(name string, def bool) bool {
	key := "feature_" + strings.ToLower(name)
	_ = s.v.BindEnv(key, name)
	if !s.v.IsSet(key) {
		return def
	}
	switch s.v.GetString(key) {
	case "", "0", "OFF":
		return false
	}
	return true
}

// Debug reports whether DEBUG selects a debug build.
func (s *Settings) Debug() (bool, error) {
	val := strings.TrimSpace(s.v.GetString(keyDebug))
	if val == "" {
		return false, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("DEBUG=%q is not an integer", val)
	}
	return n != 0, nil
}

// Version returns the version override, or "" if none.
func (s *Settings) Version() string {
	return strings.TrimSpace(s.v.GetString(keyVersion))
}

// PrefixPath returns the package search path override and whether it is
// set at all.
func (s *Settings) PrefixPath() (string, bool) {
	return s.v.GetString(keyPrefixPath), s.v.IsSet(keyPrefixPath)
}

// ConfigureArgs returns the extra configure arguments, split on whitespace.
func (s *Settings) ConfigureArgs() []string {
	return strings.Fields(s.v.GetString(keyConfigureArgs))
}

// BuildArgs returns the extra build arguments, split on whitespace.
func (s *Settings) BuildArgs() []string {
	return strings.Fields(s.v.GetString(keyBuildArgs))
}

// ToolExecutable returns the path of the helper build tool the configure
// step runs. Empty lets the build scripts find one.
func (s *Settings) ToolExecutable() string {
	return s.v.GetString(keyTool)
}

// Parallel returns the build parallelism, the number of CPUs minus one
// unless overridden.
func (s *Settings) Parallel() string {
	if p := strings.TrimSpace(s.v.GetString(keyParallel)); p != "" {
		return p
	}
	return strconv.Itoa(max(runtime.NumCPU()-1, 1))
}

// Python returns the host interpreter.
func (s *Settings) Python() string {
	return s.v.GetString(keyPython)
}

// Manifest returns the manifest path override, or "".
func (s *Settings) Manifest() string {
	return s.v.GetString(keyManifest)
}
