// Package kv provides the durable key-value storage the stores persist
// their collections into. Values are opaque bytes keyed by string.
package kv

import (
	"context"
	"errors"
	"time"
)

// Storage is a process-wide durable key-value store.
type Storage interface {
	// Get returns the value for key. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set creates or replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys lists all stored keys in lexical order.
	Keys(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

var ErrClosed = errors.New("storage is closed")

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	ConnMaxLifetime time.Duration
	EnableWAL       bool
}

// DefaultDatabaseConfig returns sensible defaults for database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		ConnMaxLifetime: 5 * time.Minute,
		EnableWAL:       true,
	}
}
