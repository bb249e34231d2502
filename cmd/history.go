package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mgdispatch/core/model"
	"github.com/kilianp07/mgdispatch/core/runlog"
)

var (
	historyStatus string
	historySince  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded optimization runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only runs with this status (optimal, infeasible, solver_error, invalid)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only runs at or after this RFC3339 time")
	rootCmd.AddCommand(historyCmd)
}

func historyQuery(status, since string) (runlog.RunQuery, error) {
	var q runlog.RunQuery
	if status != "" {
		st, ok := model.ParseStatus(status)
		if !ok {
			return q, fmt.Errorf("unknown status %q", status)
		}
		q.Status = &st
	}
	if since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return q, fmt.Errorf("parse --since: %w", err)
		}
		q.Start = ts
	}
	return q, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	q, err := historyQuery(historyStatus, historySince)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := runlog.NewStore(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTIME\tSTATUS\tOBJECTIVE\tHOURS\tELAPSED_MS\tERROR")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d\t%d\t%s\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Status, r.Objective, r.Horizon, r.ElapsedMS, r.Error)
	}
	return tw.Flush()
}
