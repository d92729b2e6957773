package api

import (
	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/internal/previews"
	"github.com/JaimeStill/pdf-lab/internal/shares"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Shares    shares.System
	Previews  previews.System
}

// NewDomain creates all domain systems from the API runtime. Repositories
// are backed by PostgreSQL or held in memory depending on cfg.Persistence.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	var (
		documentRepo documents.Repository
		shareRepo    shares.Repository
	)

	if runtime.Database != nil {
		documentRepo = documents.NewPostgres(runtime.Database.Connection())
		shareRepo = shares.NewPostgres(runtime.Database.Connection())
	} else {
		documentRepo = documents.NewMemory()
		shareRepo = shares.NewMemory()
	}

	documentsSys := documents.New(
		documentRepo,
		runtime.Artifacts,
		runtime.Engine,
		runtime.Logger,
		documents.Options{
			MaxMergeSources:  cfg.Documents.MaxMergeSources,
			TransformTimeout: cfg.Documents.TransformTimeoutDuration(),
			Pagination:       runtime.Pagination,
		},
	)

	sharesSys := shares.New(
		shareRepo,
		documentsSys,
		runtime.Logger,
		shares.Options{
			MaxTTL:     cfg.Shares.MaxTTLDuration(),
			Pagination: runtime.Pagination,
		},
	)

	previewsSys := previews.New(
		documentsSys,
		runtime.Storage,
		previews.NewRenderer(),
		runtime.Logger,
	)

	return &Domain{
		Documents: documentsSys,
		Shares:    sharesSys,
		Previews:  previewsSys,
	}
}
