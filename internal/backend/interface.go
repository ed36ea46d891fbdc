package backend

import (
	"context"

	"gagyebu/internal/services"
	"gagyebu/internal/sheets"
)

// Backend bundles the outbound adapters the application runs on.
type Backend struct {
	Store sheets.EntryStore
	// Publisher is nil when AMQP is not configured.
	Publisher services.EventPublisher
	// Sheets is nil when Google Sheets import is not configured.
	Sheets sheets.TableReader
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// BackendResult contains the backend instance and lifecycle hooks
type BackendResult struct {
	Backend Backend
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Ledger store type
	Type BackendType

	// SQLite specific
	SQLiteDSN string

	// Events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets import (optional)
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of ledger entry store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
