package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Norgate-AV/widgetpack/internal/config"
	"github.com/Norgate-AV/widgetpack/internal/ledger"
)

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:          "history [widget]",
		Short:        "List recorded builds",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runHistory,
		SilenceUsage: true,
	}

	historyCmd.Flags().Bool("count", false, "Print only the number of recorded builds")

	return historyCmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	count, err := cmd.Flags().GetBool("count")
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

	w := cmd.OutOrStdout()

	if count && len(args) == 0 {
		n, err := l.Stats()
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%d build(s) recorded\n", n)
		return nil
	}

	var widget string
	if len(args) == 1 {
		widget = args[0]
	}

	records, err := l.List(widget)
	if err != nil {
		return err
	}

	if count {
		fmt.Fprintf(w, "%d build(s) recorded\n", len(records))
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "no builds recorded")
		return nil
	}

	bold := color.New(color.Bold).SprintFunc()
	for _, r := range records {
		fmt.Fprintf(w, "%s %s  %-12s %8d  %s\n",
			bold(fmt.Sprintf("%-20s", r.Widget)), r.Tag, r.Version, r.Bytes, r.BuiltAt.Local().Format(time.DateTime))
	}

	return nil
}
