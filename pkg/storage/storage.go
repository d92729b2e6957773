// Package storage provides blob storage for immutable artifacts.
// It defines a System interface with filesystem and S3 implementations.
// Writes never overwrite: a key is published once and only removed by Delete.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/pdf-lab/pkg/lifecycle"
)

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrExists indicates a write targeted a key that is already published.
	ErrExists = errors.New("storage: key already exists")

	// ErrPermissionDenied indicates insufficient permissions to access the key.
	ErrPermissionDenied = errors.New("storage: permission denied")

	// ErrInvalidKey indicates the key is malformed or contains invalid characters.
	// This includes empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// System defines blob storage operations.
type System interface {
	// Store publishes data at key. The data is fully written before the key
	// becomes visible. Returns ErrExists if key is already published.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the data stored at key, or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is published.
	Exists(ctx context.Context, key string) (bool, error)

	// Start registers lifecycle hooks with the coordinator.
	Start(lc *lifecycle.Coordinator) error
}

// New creates the storage backend selected by cfg.Backend.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	switch cfg.Backend {
	case "", BackendFilesystem:
		return NewFilesystem(cfg.BasePath, logger)
	case BackendS3:
		return NewS3(ctx, &cfg.S3, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
