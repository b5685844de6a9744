package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			journal, err := a.journal()
			if err != nil {
				return err
			}
			if journal == nil {
				return errors.New("no journal directory configured (set journal_dir or USERGATE_JOURNAL_DIR)")
			}

			entries, err := journal.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTIME\tHOST\tMODE\tSTATUS\tCOMMANDS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					e.ID, e.Timestamp.Format(time.RFC3339), e.Host, e.Mode, e.Status, len(e.Commands))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the last N runs")
	return cmd
}
