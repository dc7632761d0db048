package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"budget/internal/core"
)

func newCyclesCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Inspect and edit a user's budget cycles",
	}
	cmd.PersistentFlags().StringVarP(&username, "user", "u", "", "Owner of the cycles")
	_ = cmd.MarkPersistentFlagRequired("user")

	list := &cobra.Command{
		Use:   "list",
		Short: "List cycles, newest month first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, err := a.users.Resolve(cmd.Context(), username)
			if err != nil {
				return err
			}
			cycles, err := a.cycles.List(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ID\tMONTH\tSALARY\tSAVINGS\tMONTHLY\tWANTS\t")
			for _, c := range cycles {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
					c.ID, c.MonthKey,
					core.FormatAmount(c.Salary),
					core.FormatAmount(c.Allocation.Savings),
					core.FormatAmount(c.Allocation.Monthly),
					core.FormatAmount(c.Allocation.Wants))
			}
			return tw.Flush()
		},
	}

	var (
		month  string
		salary string
		split  string
	)
	set := &cobra.Command{
		Use:     "set",
		Short:   "Create or replace the cycle of a month",
		Example: "  budgetctl cycles set -u alice --month 2025-01 --salary 30000 --split 30,50,20",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := cycleInput(month, salary, split)
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, err := a.users.Resolve(cmd.Context(), username)
			if err != nil {
				return err
			}
			c, err := a.cycles.Upsert(cmd.Context(), u.ID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle %d %s: savings %s, monthly %s, wants %s\n",
				c.ID, c.MonthKey,
				core.FormatAmount(c.Allocation.Savings),
				core.FormatAmount(c.Allocation.Monthly),
				core.FormatAmount(c.Allocation.Wants))
			return nil
		},
	}
	set.Flags().StringVar(&month, "month", "", "Month key, YYYY-MM")
	set.Flags().StringVar(&salary, "salary", "", "Salary of the month")
	set.Flags().StringVar(&split, "split", "", "Savings,monthly,wants percentages summing to 100")
	_ = set.MarkFlagRequired("month")
	_ = set.MarkFlagRequired("salary")
	_ = set.MarkFlagRequired("split")

	del := &cobra.Command{
		Use:   "delete <month>",
		Short: "Delete a cycle and its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			u, c, err := a.cycleFor(cmd.Context(), username, args[0])
			if err != nil {
				return err
			}
			if err := a.cycles.Delete(cmd.Context(), c.ID, u.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted cycle %d %s\n", c.ID, c.MonthKey)
			return nil
		},
	}

	cmd.AddCommand(list, set, del)
	return cmd
}

// cycleInput parses the --split flag as three comma separated percentages.
// Decimal commas are not accepted there; use dots.
func cycleInput(month, salary, split string) (core.CycleInput, error) {
	s, err := core.ParseDecimal(salary)
	if err != nil {
		return core.CycleInput{}, err
	}
	parts := strings.Split(split, ",")
	if len(parts) != 3 {
		return core.CycleInput{}, fmt.Errorf("%w: --split wants three percentages, got %q", core.ErrBadFormat, split)
	}
	pcts := make([]decimal.Decimal, 3)
	for i, p := range parts {
		if pcts[i], err = core.ParseDecimal(p); err != nil {
			return core.CycleInput{}, err
		}
	}
	return core.CycleInput{
		MonthKey:    strings.TrimSpace(month),
		Salary:      s,
		Percentages: core.Percentages{Savings: pcts[0], Monthly: pcts[1], Wants: pcts[2]},
	}, nil
}
