package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budget/internal/core"
)

func newTxnsCmd(a *app) *cobra.Command {
	var username, month string

	cmd := &cobra.Command{
		Use:   "txns",
		Short: "List and record transactions of a cycle",
	}
	cmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Owner of the cycle")
	cmd.PersistentFlags().StringVar(&month, "month", "", "Month key of the cycle, YYYY-MM")
	_ = cmd.MarkPersistentFlagRequired("user")
	_ = cmd.MarkPersistentFlagRequired("month")

	var bucket string
	list := &cobra.Command{
		Use:   "list",
		Short: "List the ledger by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *core.Bucket
			if bucket != "" {
				b, err := core.ParseBucket(bucket)
				if err != nil {
					return err
				}
				filter = &b
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, c, err := a.cycleFor(cmd.Context(), username, month)
			if err != nil {
				return err
			}
			txns, err := a.txns.List(cmd.Context(), u.ID, c.ID, filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tBUCKET\tAMOUNT\tNOTE")
			for _, t := range txns {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Bucket, core.FormatAmount(t.Amount), t.Note)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&bucket, "bucket", "", "Only show one bucket")

	var date, note string
	add := &cobra.Command{
		Use:     "add <bucket> <amount>",
		Short:   "Record a transaction",
		Example: "  budgetctl txns add -u alice --month 2025-01 wants 19.90 --date 2025-01-12 --note cinema",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := core.ParseBucket(args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			d, err := core.ParseDate(date)
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, c, err := a.cycleFor(cmd.Context(), username, month)
			if err != nil {
				return err
			}
			res, err := a.txns.Create(cmd.Context(), u.ID, core.TransactionInput{
				CycleID: c.ID,
				Bucket:  b,
				Date:    d,
				Note:    note,
				Amount:  amount,
			})
			if err != nil {
				return err
			}
			bal := res.Summary.Get(b)
			fmt.Fprintf(cmd.OutOrStdout(), "transaction %d recorded, %s remaining %s of %s\n",
				res.Transaction.ID, b, core.FormatAmount(bal.Remaining), core.FormatAmount(bal.Allocated))
			return nil
		},
	}
	add.Flags().StringVar(&date, "date", "", "Date, YYYY-MM-DD")
	add.Flags().StringVar(&note, "note", "", "Free text note")
	_ = add.MarkFlagRequired("date")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("%w: invalid transaction id %q", core.ErrBadFormat, args[0])
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, _, err := a.cycleFor(cmd.Context(), username, month)
			if err != nil {
				return err
			}
			if _, err := a.txns.Delete(cmd.Context(), id, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted transaction %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
