package artifact

import (
	"errors"
	"fmt"
)

// ErrNoCacheDir is returned when a pattern refers to the build output tree
// but the build tool did not run in this process.
var ErrNoCacheDir = errors.New("build output directory is unknown: the build tool did not run in this command")

// ResolutionError reports a source pattern that did not match exactly one
// file.
type ResolutionError struct {
	Name     string   // descriptor identity
	Pattern  string   // pattern as declared
	Resolved string   // pattern after substitution and renaming
	Root     string   // directory searched
	Matches  []string // files found
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("expecting exactly 1 file matching %s in %s, found %d %q; resolved pattern: %s",
		e.Pattern, e.Root, len(e.Matches), e.Matches, e.Resolved)
}
