package internal

import (
	"github.com/spf13/cobra"
)

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the native project and stage the whole package",
	Long:  `Build configures and builds the native project, then places the python sources and installs the built artifacts.`,
	Args:  cobra.NoArgs,
	RunE:  runBuildAll,
}

func init() {
	buildOpts.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuildAll(cmd *cobra.Command, args []string) error {
	s, err := newSession(&buildOpts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	c, err := s.runBuild(ctx)
	if err != nil {
		return err
	}
	if err := s.placeSources(ctx); err != nil {
		return err
	}
	return s.installArtifacts(ctx, c)
}
