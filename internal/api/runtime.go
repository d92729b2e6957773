package api

import (
	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/JaimeStill/pdf-lab/internal/infrastructure"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// shared PDF engine and artifact store.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Engine     *pdf.Engine
	Artifacts  artifacts.Store
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination: cfg.API.Pagination,
		Engine:     pdf.NewEngine(cfg.Documents.MaxUploadSizeBytes()),
		Artifacts:  artifacts.New(infra.Storage, logger),
	}
}
