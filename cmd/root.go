package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/widgetpack/internal/codes"
	"github.com/Norgate-AV/widgetpack/internal/pipeline"
	"github.com/Norgate-AV/widgetpack/internal/version"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "widgetpack",
		Short:        "Bundle widgets into self-contained HTML",
		Long:         `Build every allowed widget under the source tree into a single HTML document with its JavaScript and CSS inlined.`,
		RunE:         runBuild,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().StringSliceP("widget", "w", []string{}, "Widget to build (repeatable, comma separated)")
	rootCmd.PersistentFlags().String("src", "", "Source directory scanned for widget entries")
	rootCmd.PersistentFlags().StringP("out", "o", "", "Output directory for HTML artifacts")
	rootCmd.PersistentFlags().String("version-string", "", "Build version (defaults to the package.json version)")
	rootCmd.PersistentFlags().Bool("no-minify", false, "Disable minification")
	rootCmd.PersistentFlags().Bool("no-ledger", false, "Do not record builds in the ledger")
	rootCmd.PersistentFlags().String("sass", "", "Path to a sass binary for .scss/.sass stylesheets")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newTagCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPruneCmd())

	return rootCmd
}

func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, failureSummary(err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	kind := pipeline.KindOf(err)
	if codes.IsSuccess(kind) {
		return 0
	}

	return codes.ExitCode(kind)
}

// failureSummary names the failure class of err and the exit status it maps to
func failureSummary(err error) string {
	kind := pipeline.KindOf(err)
	return fmt.Sprintf("%s (exit code %d)", kind, codes.ExitCode(kind))
}
