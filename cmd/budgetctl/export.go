package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		username string
		month    string
		output   string
		toSheet  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a cycle as CSV or push it to the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if toSheet {
				u, _, err := a.cycleFor(cmd.Context(), username, month)
				if err != nil {
					return err
				}
				return a.pushToSheet(cmd, u.ID, month)
			}

			u, err := a.users.Resolve(cmd.Context(), username)
			if err != nil {
				return err
			}

			e, err := a.export.Export(cmd.Context(), u.ID, month)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := services.WriteCSV(w, e); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d transactions to %s\n", len(e.Transactions), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "Owner of the cycle")
	cmd.Flags().StringVar(&month, "month", "", "Month key, YYYY-MM")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the CSV to a file instead of stdout")
	cmd.Flags().BoolVar(&toSheet, "sheet", false, "Rewrite the cycle's tab in GOOGLE_SPREADSHEET_ID")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")
	cmd.MarkFlagsMutuallyExclusive("output", "sheet")
	return cmd
}

// pushToSheet runs the worker's sync for one cycle without going through
// the message queue.
func (a *app) pushToSheet(cmd *cobra.Command, userID int64, month string) error {
	if a.cfg.GoogleSpreadsheetID == "" {
		return fmt.Errorf("--sheet needs GOOGLE_SPREADSHEET_ID")
	}
	sink, err := backend.NewFactory(a.logger.WithComponent(log.ComponentBackend).Logger).
		CreateSink(cmd.Context(), backend.Config{
			Type:                     backend.SQLiteBackend,
			SQLiteDBPath:             a.dbPath,
			GoogleSpreadsheetID:      a.cfg.GoogleSpreadsheetID,
			GoogleServiceAccountFile: a.cfg.GoogleServiceAccountFile,
			GoogleServiceAccountJSON: a.cfg.GoogleServiceAccountJSON,
		})
	if err != nil {
		return err
	}
	w := worker.NewExportWorker(a.export, a.backend.Store, sink, a.logger)
	if err := w.SyncCycle(cmd.Context(), userID, month); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %s to spreadsheet\n", month)
	return nil
}
