package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gagyebu/internal/amqp"
	gsheet "gagyebu/internal/sheets/google"
	"gagyebu/internal/sheets/memory"
	"gagyebu/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case MemoryBackend:
		result = f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	cleanups := []CleanupFunc{result.Cleanup}

	// Initialize AMQP client (optional)
	if config.AMQPURL != "" {
		client := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err := client.Connect(ctx); err != nil {
			f.logger.Warn("AMQP broker unreachable, events will be retried on publish", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
		result.Backend.Publisher = client
		cleanups = append(cleanups, client.Close)
	}

	// Initialize Google Sheets reader (optional)
	creds := gsheet.Credentials{JSON: config.GoogleServiceAccountJSON, File: config.GoogleServiceAccountFile}
	if creds.Configured() {
		reader, err := gsheet.New(ctx, creds)
		if err != nil {
			f.logger.Warn("Failed to initialize Google Sheets client, import disabled", "error", err)
		} else {
			result.Backend.Sheets = reader
			f.logger.Info("Initialized Google Sheets import")
		}
	}

	result.Cleanup = joinCleanups(cleanups)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite ledger store", "dsn", config.SQLiteDSN)

	return &BackendResult{
		Backend: Backend{Store: repo},
		Ready:   repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory ledger store")

	return &BackendResult{
		Backend: Backend{Store: memory.New()},
		Ready:   func(context.Context) error { return nil },
	}
}

func joinCleanups(fns []CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if fns[i] == nil {
				continue
			}
			if err := fns[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
