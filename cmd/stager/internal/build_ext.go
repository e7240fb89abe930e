package internal

import (
	"github.com/spf13/cobra"
)

var buildExtOpts buildFlags

var buildExtCmd = &cobra.Command{
	Use:   "build-extensions",
	Short: "Build the native project and install its artifacts",
	Long: `Build-extensions configures and builds the native project, then copies the
built artifacts into the staged package tree, or next to the sources with --inplace.`,
	Args: cobra.NoArgs,
	RunE: runBuildExt,
}

func init() {
	buildExtOpts.register(buildExtCmd)
	rootCmd.AddCommand(buildExtCmd)
}

func runBuildExt(cmd *cobra.Command, args []string) error {
	s, err := newSession(&buildExtOpts)
	if err != nil {
		return err
	}
	c, err := s.runBuild(cmd.Context())
	if err != nil {
		return err
	}
	return s.installArtifacts(cmd.Context(), c)
}
