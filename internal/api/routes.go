package api

import (
	"net/http"

	"github.com/JaimeStill/pdf-lab/internal/config"
	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/internal/previews"
	"github.com/JaimeStill/pdf-lab/internal/shares"
	"github.com/JaimeStill/pdf-lab/pkg/openapi"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	spec *openapi.Spec,
	runtime *Runtime,
	domain *Domain,
	cfg *config.Config,
) {
	documentsHandler := documents.NewHandler(domain.Documents, runtime.Logger, runtime.Pagination, cfg.Documents.MaxUploadSizeBytes())
	sharesHandler := shares.NewHandler(domain.Shares, runtime.Logger, runtime.Pagination, cfg.Domain+cfg.API.BasePath)
	previewsHandler := previews.NewHandler(domain.Previews, runtime.Logger)

	routes.Register(
		mux,
		cfg.API.BasePath,
		spec,
		documentsHandler.Routes(),
		sharesHandler.Routes(),
		previewsHandler.Routes(),
	)
}
