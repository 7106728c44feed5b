package backend

import (
	"context"

	"timesheet/internal/repo"
	"timesheet/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the wired store and entry service. Cleanup releases
// the store and the event publisher.
type BackendResult struct {
	Store   repo.Store
	Entries *services.EntryService
	Events  bool // an AMQP publisher is attached
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// memory
	DataFile     string
	SeedMockData bool

	// sqlite
	SQLiteDBPath string

	// optional change events, any backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
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
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
