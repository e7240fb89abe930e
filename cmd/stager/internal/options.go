package internal

import (
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

// buildFlags are the packaging options shared by every command.
type buildFlags struct {
	debug     bool
	buildBase string
	buildLib  string
	buildTemp string
	inplace   bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVarP(&f.debug, "debug", "g", false, "Compile with debugging information")
	flags.StringVar(&f.buildBase, "build-base", "pip-out", "Base directory for build outputs")
	flags.StringVar(&f.buildLib, "build-lib", "", "Directory of the staged package tree (default <build-base>/lib)")
	flags.StringVar(&f.buildTemp, "build-temp", "", "Directory for temporary build files (default <build-base>/temp.<os>-<arch>)")
	flags.BoolVarP(&f.inplace, "inplace", "i", false, "Install built files next to the sources (editable mode)")
}

func (f *buildFlags) lib() string {
	if f.buildLib != "" {
		return f.buildLib
	}
	return filepath.Join(f.buildBase, "lib")
}

func (f *buildFlags) temp() string {
	if f.buildTemp != "" {
		return f.buildTemp
	}
	return filepath.Join(f.buildBase, "temp."+runtime.GOOS+"-"+runtime.GOARCH)
}
