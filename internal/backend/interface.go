// Package backend wires a storage backend, the optional event publisher and
// the services on top of them.
package backend

import (
	"context"

	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// CleanupFunc releases everything a Result holds.
type CleanupFunc func() error

// Result bundles the wired services with their store.
type Result struct {
	Store     ports.Store
	Publisher ports.EventPublisher
	Ledger    *services.LedgerService
	Dashboard *services.DashboardService
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Empty AMQPURL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional TOML file applied once the backend is up.
	SeedFile string
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
