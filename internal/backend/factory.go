package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/sheets"
	gsheet "budget/internal/sheets/google"
	sheetsmem "budget/internal/sheets/memory"
	"budget/internal/storage"
	"budget/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	result := &BackendResult{Store: sqliteRepo, Cleanup: sqliteRepo.Close}

	// Initialize AMQP client (optional)
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change notifications", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			// Assigned only on success so a failed dial leaves a nil interface.
			result.Publisher = amqpClient
			result.Cleanup = func() error {
				amqpErr := amqpClient.Close()
				if err := sqliteRepo.Close(); err != nil {
					return err
				}
				return amqpErr
			}
		}
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", result.Publisher != nil)

	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if config.AMQPURL != "" {
		f.logger.WarnContext(ctx, "Ignoring AMQP settings: the export worker cannot read the memory backend")
	}

	store := memory.New()
	f.logger.InfoContext(ctx, "Initialized memory backend")

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// CreateSink returns the Google Sheets export sink, or an in-memory sink
// when no spreadsheet is configured.
func (f *DefaultFactory) CreateSink(ctx context.Context, config Config) (sheets.Sink, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.WarnContext(ctx, "No GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return sheetsmem.New(), nil
	}

	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets sink", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}
