package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// app carries the state shared by every subcommand. The backend is opened
// lazily so migrate can run against a database the repository refuses.
type app struct {
	dbPath   string
	logLevel string

	cfg    *config.Config
	logger *log.Logger

	backend *backend.BackendResult
	users   *services.UserService
	cycles  *services.CycleService
	txns    *services.TransactionService
	export  *services.ExportService
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Administer the budget ledger database",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default: SQLITE_DB_PATH)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newMigrateCmd(a),
		newUsersCmd(a),
		newCyclesCmd(a),
		newTxnsCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.dbPath == "" {
		a.dbPath = cfg.SQLiteDBPath
	}
	a.logger = log.New(log.Config{
		Level:     log.ParseLevel(a.logLevel),
		Component: log.ComponentCLI,
		JSON:      cfg.JSONLogs(),
		Output:    cmd.ErrOrStderr(),
	})
	return nil
}

// open connects to the SQLite store. Mutations publish change messages when
// AMQP is configured, so a running worker picks up CLI edits too.
func (a *app) open(ctx context.Context) error {
	if a.backend != nil {
		return nil
	}
	be, err := backend.NewFactory(a.logger.WithComponent(log.ComponentBackend).Logger).
		CreateBackend(ctx, backend.Config{
			Type:         backend.SQLiteBackend,
			SQLiteDBPath: a.dbPath,
			AMQPURL:      a.cfg.AMQPURL,
			AMQPExchange: a.cfg.AMQPExchange,
			AMQPQueue:    a.cfg.AMQPQueue,
		})
	if err != nil {
		return err
	}
	a.backend = be
	a.users = services.NewUserService(be.Store, a.cfg.IdentityCacheTTL, a.logger)
	a.cycles = services.NewCycleService(be.Store, be.Publisher, a.logger)
	a.txns = services.NewTransactionService(be.Store, be.Publisher, a.logger)
	a.export = services.NewExportService(be.Store)
	return nil
}

func (a *app) close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Cleanup()
	a.backend = nil
	return err
}

// cycleFor resolves username and loads their cycle for monthKey.
func (a *app) cycleFor(ctx context.Context, username, monthKey string) (core.User, core.Cycle, error) {
	u, err := a.users.Resolve(ctx, username)
	if err != nil {
		return core.User{}, core.Cycle{}, err
	}
	if err := core.ValidateMonthKey(monthKey); err != nil {
		return core.User{}, core.Cycle{}, err
	}
	c, err := a.backend.Store.GetCycleByMonth(ctx, u.ID, monthKey)
	if err != nil {
		return core.User{}, core.Cycle{}, fmt.Errorf("cycle %s of %s: %w", monthKey, username, err)
	}
	return u, c, nil
}
