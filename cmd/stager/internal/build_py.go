package internal

import (
	"github.com/spf13/cobra"
)

var buildPyOpts buildFlags

var buildPyCmd = &cobra.Command{
	Use:   "build-python-sources",
	Short: "Place the version module and resource files",
	Long:  `Build-python-sources writes version.py and copies resource files and headers into the package directory.`,
	Args:  cobra.NoArgs,
	RunE:  runBuildPy,
}

func init() {
	buildPyOpts.register(buildPyCmd)
	rootCmd.AddCommand(buildPyCmd)
}

func runBuildPy(cmd *cobra.Command, args []string) error {
	s, err := newSession(&buildPyOpts)
	if err != nil {
		return err
	}
	return s.placeSources(cmd.Context())
}
