package build

import (
	"fmt"
	"strings"
)

type diagnosis struct {
	match  string
	advice func(cacheDir string) string
}

var diagnoses = []diagnosis{
	{
		// A source listed by the project is missing: submodules are out of
		// sync or the cache predates a file move.
		match: "Cannot find source file",
		advice: func(cacheDir string) string {
			return fmt.Sprintf("Either the build cache is outdated or git submodules are not synced.\n"+
				"Run the following before retrying:\n"+
				"    rm -rf %s\n"+
				"    git submodule sync\n"+
				"    git submodule update --init\n", cacheDir)
		},
	},
}

// remediation returns advice for the first known cause found in stderr.
func remediation(stderr, cacheDir string) string {
	for _, d := range diagnoses {
		if strings.Contains(stderr, d.match) {
			return d.advice(cacheDir)
		}
	}
	return ""
}
