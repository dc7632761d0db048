package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budget/internal/core"
)

func newSummaryCmd(a *app) *cobra.Command {
	var username, month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show allocated, used and remaining money per bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, c, err := a.cycleFor(cmd.Context(), username, month)
			if err != nil {
				return err
			}
			sum, err := a.cycles.Summary(cmd.Context(), c.ID, u.ID)
			if err != nil {
				return err
			}
			return writeSummary(cmd, sum)
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "Owner of the cycle")
	cmd.Flags().StringVar(&month, "month", "", "Month key, YYYY-MM")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func writeSummary(cmd *cobra.Command, sum core.Summary) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cycle %s\n\n", sum.MonthKey)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BUCKET\tALLOCATED\tUSED\tREMAINING\t")
	for _, b := range core.Buckets() {
		bal := sum.Get(b)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", b,
			core.FormatAmount(bal.Allocated),
			core.FormatAmount(bal.Used),
			core.FormatAmount(bal.Remaining))
	}
	return tw.Flush()
}
