package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stager",
	Short: "stager stages native build outputs into a python package",
	Long: `stager runs the CMake build of a python package with native parts and
copies the built executables, libraries and extension modules into the
package tree, or next to the sources for editable installs.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show build tool output and debug logs")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Cancel on interrupt so that deferred cleanups, such as restoring
	// HOME, run before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
