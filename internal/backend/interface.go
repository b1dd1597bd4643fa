package backend

import (
	"context"

	"spendlens/internal/ledger"
)

// Ledger is a read-only ledger store able to pin consistent snapshots.
type Ledger interface {
	ledger.Reader
	ledger.Snapshotter
}

// Importer loads a fixture into a persistent store.
type Importer interface {
	Import(ctx context.Context, fx *ledger.Fixture) error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the ledger instance and optional cleanup function
type BackendResult struct {
	Ledger Ledger
	// Importer is nil for backends that cannot be seeded.
	Importer Importer
	Cleanup  CleanupFunc
}

// Factory creates ledgers based on configuration
type Factory interface {
	// CreateBackend creates a ledger instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN  string
	MaxOpenConns int

	// Memory backend specific: JSON fixture loaded at startup
	FixturePath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
