// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies domain systems share: logging, lifecycle,
// the optional database pool and blob storage.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/JaimeStill/pdf-lab/pkg/database"
	"github.com/JaimeStill/pdf-lab/pkg/lifecycle"
	"github.com/JaimeStill/pdf-lab/pkg/logging"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
)

// ErrNotReady is returned by Check until lifecycle startup hooks complete.
var ErrNotReady = errors.New("service not ready")

// Infrastructure holds the core systems required by all domain modules.
// Database is nil when the service runs with in-memory persistence.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	var db database.System
	if cfg.Persistence == config.PersistencePostgres {
		var err error
		db, err = database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
	}

	store, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// Start registers every infrastructure system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}

// Check reports whether the service can take traffic: startup hooks have
// finished and, when configured, the database answers a ping.
func (i *Infrastructure) Check(ctx context.Context) error {
	if !i.Lifecycle.Ready() {
		return ErrNotReady
	}
	if i.Database != nil {
		return i.Database.Check(ctx)
	}
	return nil
}
