package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendlens/internal/ledger/memory"
	"spendlens/internal/storage"
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

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.OpenSQLite(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite ledger: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Ledger:   repo,
		Importer: repo,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.OpenPostgres(ctx, config.PostgresDSN, config.MaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres ledger: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Postgres backend", "max_open_conns", config.MaxOpenConns)

	return &BackendResult{
		Ledger:   repo,
		Importer: repo,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New()
	if config.FixturePath != "" {
		var err error
		if store, err = memory.NewFromFile(config.FixturePath); err != nil {
			return nil, fmt.Errorf("failed to load ledger fixture: %w", err)
		}
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "fixture", config.FixturePath)

	return &BackendResult{
		Ledger:  store,
		Cleanup: func() error { return nil }, // nothing to release
	}, nil
}
