package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"xcreport/src/pipeline"
	"xcreport/src/report"
	"xcreport/src/store"
)

func newReportCmd() *cobra.Command {
	var (
		out   outputOptions
		limit int
	)

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show a stored report, or list recent ones",
		Long: `Reads reports saved by 'parse --store', 'submit' or the ingest agent.
Without a run ID the most recent reports are listed.

Example:
  xcreport report
  xcreport report 3f0c9a52-8d7e-4d0e-b1a4-6f2a2a9d1e11 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := pipeline.Open(ctx, appConfig, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			if len(args) == 0 {
				return listReports(ctx, cmd.OutOrStdout(), backend.Store, limit)
			}
			out.noColor = out.noColor || appConfig.NoColor
			return showReport(ctx, cmd.OutOrStdout(), backend.Store, args[0], out)
		},
	}

	out.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Max reports listed")
	return cmd
}

func showReport(ctx context.Context, w io.Writer, st store.Store, runID string, opts outputOptions) error {
	rep, err := st.GetReport(ctx, runID)
	if err != nil {
		return err
	}
	b, err := report.FromReport(*rep)
	if err != nil {
		return fmt.Errorf("report %s is corrupt: %w", runID, err)
	}
	return writeResult(w, b, *rep, opts)
}

func listReports(ctx context.Context, w io.Writer, st store.Store, limit int) error {
	reports, err := st.ListReports(ctx, limit)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports stored")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTATUS\tTARGET\tERRORS\tWARNINGS\tFINISHED")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.RunID, r.Status, r.Target, r.ErrorCount, r.WarningCount, r.FinishedAt)
	}
	return tw.Flush()
}
