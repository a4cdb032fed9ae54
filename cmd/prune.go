package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/widgetpack/internal/config"
	"github.com/Norgate-AV/widgetpack/internal/ledger"
)

// DefaultKeep is the number of versions prune keeps per widget
const DefaultKeep = 3

func newPruneCmd() *cobra.Command {
	pruneCmd := &cobra.Command{
		Use:          "prune",
		Short:        "Delete old versioned HTML files",
		Long:         `Delete the versioned HTML files of each widget beyond the most recent recorded builds. Stable name.html files are never removed.`,
		Args:         cobra.NoArgs,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	pruneCmd.Flags().IntP("keep", "k", DefaultKeep, "Versions to keep per widget")
	pruneCmd.Flags().Bool("all", false, "Delete every recorded versioned file and clear the ledger")

	return pruneCmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	keep, err := cmd.Flags().GetInt("keep")
	if err != nil {
		return err
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader().LoadForLedger(cmd)
	if err != nil {
		return err
	}

	l, err := ledger.Open(cfg.LedgerDir)
	if err != nil {
		return err
	}
	defer l.Close()

	var pruned []ledger.Record
	if all {
		pruned, err = l.Purge(afero.NewOsFs())
	} else {
		pruned, err = l.Prune(afero.NewOsFs(), keep)
	}

	red := color.New(color.FgRed).SprintFunc()
	w := cmd.OutOrStdout()
	for _, r := range pruned {
		fmt.Fprintf(w, "%s %s\n", red("removed"), r.VersionedFile)
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%d file(s) pruned\n", len(pruned))
	return nil
}
