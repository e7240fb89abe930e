package build

import (
	"errors"
	"strings"

	"github.com/goplus/stager/pkgs/buildsys"
)

// ConfigurationError reports a failed configure step. Stderr holds the
// tool's diagnostics; Remediation is set when they match a known cause.
type ConfigurationError struct {
	Stderr      string
	Remediation string
	Err         error
}

func newConfigurationError(err error, cacheDir string) *ConfigurationError {
	e := &ConfigurationError{Err: err}
	var runErr *buildsys.RunError
	if errors.As(err, &runErr) {
		e.Stderr = runErr.Stderr
	}
	e.Remediation = remediation(e.Stderr, cacheDir)
	return e
}

func (e *ConfigurationError) Error() string {
	msg := strings.TrimRight(e.Stderr, "\n")
	if msg == "" {
		msg = "configure: " + e.Err.Error()
	}
	if e.Remediation != "" {
		msg += "\n\n" + e.Remediation
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// BuildError reports a failed build step.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return e.Err.Error()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
