package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"timesheet/internal/amqp"
	"timesheet/internal/core"
	"timesheet/internal/repo"
	"timesheet/internal/repo/memory"
	"timesheet/internal/services"
	"timesheet/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	opts   []services.Option
}

// NewFactory creates a backend factory. Service options are passed to every
// EntryService it builds.
func NewFactory(logger *slog.Logger, opts ...services.Option) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		opts:   opts,
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store repo.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(config)
	case MemoryBackend:
		store, err = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	// a nil *amqp.Client must not end up inside the publisher interface
	var publisher services.EventPublisher
	if client := f.createPublisher(config); client != nil {
		publisher = client
	}

	entries := services.NewEntryService(store, publisher, f.opts...)

	f.logger.InfoContext(ctx, "Initialized backend",
		"type", config.Type,
		"amqp_enabled", publisher != nil)

	return &BackendResult{
		Store:   store,
		Entries: entries,
		Events:  publisher != nil,
		Cleanup: entries.Close,
	}, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (repo.Store, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return sqliteRepo, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (repo.Store, error) {
	if config.DataFile == "" {
		f.logger.Info("Initialized memory backend without snapshot", "seeded", config.SeedMockData)
		if !config.SeedMockData {
			return memory.New(nil), nil
		}
		return memory.New(memory.MockEntries(time.Now().UTC(), core.DefaultTaxonomy(), 1)), nil
	}

	store, err := memory.Open(config.DataFile, config.SeedMockData)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "data_file", config.DataFile, "seeded", config.SeedMockData)
	return store, nil
}

// createPublisher dials the broker when configured. A broker that cannot be
// reached is logged and the service runs without events.
func (f *DefaultFactory) createPublisher(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
