package domain

import (
	"context"

	"go.uber.org/zap"
)

// Diagnostics receives leveled messages from decoders and the reconciler.
// Implementations must never influence control flow; the core only writes.
type Diagnostics interface {
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)

	// Note appends free-form context to the preceding message.
	Note(msg string, fields ...zap.Field)
}

// Registry resolves domain and entity ids from a decoded registry file.
type Registry interface {
	// Ready reports whether decoding completed.
	Ready() bool

	// Domain returns the domain name for id.
	Domain(id uint8) (string, bool)

	// Entity returns the entity for id.
	Entity(id uint16) (Entity, bool)

	// Domains returns the ordered domain names, indexed by domain id.
	Domains() []string
}

// EventSource yields the decoded trace event sequence.
type EventSource interface {
	// Ready reports whether decoding completed.
	Ready() bool

	// Events returns all events in file order.
	Events() []RawEvent
}

// IntervalStore persists reconciled intervals.
// Implementation: SQLCipher encrypted SQLite database.
type IntervalStore interface {
	// Save stores intervals tagged with source (usually the base path).
	// Existing rows for the same source are replaced.
	Save(ctx context.Context, source string, intervals []Interval) error

	// Load returns the intervals stored for source in insertion order.
	Load(ctx context.Context, source string) ([]Interval, error)

	// Sources lists stored sources.
	Sources(ctx context.Context) ([]string, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// ProcessManager handles OS process queries.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool
}

// FileSystemManager handles filesystem path operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string
}

// KeyProvider abstracts the source of archive encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// NopDiagnostics discards every message.
type NopDiagnostics struct{}

func (NopDiagnostics) Info(string, ...zap.Field)  {}
func (NopDiagnostics) Warn(string, ...zap.Field)  {}
func (NopDiagnostics) Error(string, ...zap.Field) {}
func (NopDiagnostics) Note(string, ...zap.Field)  {}

var _ Diagnostics = NopDiagnostics{}
