package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Norgate-AV/widgetpack/internal/config"
	"github.com/Norgate-AV/widgetpack/internal/release"
)

func newTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag",
		Short: "Print the release tag of the build version",
		Long:  `Print the short tag embedded in versioned file names for the configured or declared build version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadForTag(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), release.Tag(cfg.Version))
			return nil
		},
		SilenceUsage: true,
	}
}
