package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/seed"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/store/memory"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}

	publisher := f.openPublisher(config)

	ledger := services.NewLedgerService(store, publisher, f.logger)
	res := &Result{
		Store:     store,
		Publisher: publisher,
		Ledger:    ledger,
		Dashboard: services.NewDashboardService(store),
		Cleanup:   ledger.Close,
	}

	if config.SeedFile != "" {
		file, err := seed.LoadFile(config.SeedFile)
		if err == nil {
			_, err = seed.Apply(ctx, file, ledger, f.logger)
		}
		if err != nil {
			_ = res.Cleanup()
			return nil, fmt.Errorf("apply seed %s: %w", config.SeedFile, err)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", config.AMQPURL != "",
		"seeded", config.SeedFile != "")
	return res, nil
}

func (f *DefaultFactory) openStore(config Config) (ports.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		store, err := memory.New()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// openPublisher never fails: a broker that cannot be reached degrades to
// a no-op publisher and the API keeps serving.
func (f *DefaultFactory) openPublisher(config Config) ports.EventPublisher {
	if config.AMQPURL == "" {
		return ports.NoopPublisher{}
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return ports.NoopPublisher{}
	}
	f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
	return client
}
