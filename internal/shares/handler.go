package shares

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/pkg/handlers"
	"github.com/JaimeStill/pdf-lab/pkg/identity"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
)

// Handler provides HTTP endpoints for share links.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	baseURL    string
}

// NewHandler creates a share handler. baseURL prefixes the download URL
// returned on issue, e.g. "https://pdf.example.com/api".
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, baseURL string) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "shares"),
		pagination: pagination,
		baseURL:    baseURL,
	}
}

// Routes returns the share endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/shares",
		Tags:        []string{"Shares"},
		Description: "Time- and count-bounded share links",
		Schemas:     Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Issue, OpenAPI: Spec.Issue},
			{Method: "GET", Pattern: "/{token}", Handler: h.Inspect, OpenAPI: Spec.Inspect},
			{Method: "DELETE", Pattern: "/{token}", Handler: h.Deactivate, OpenAPI: Spec.Deactivate},
			{Method: "GET", Pattern: "/{token}/download", Handler: h.Redeem, OpenAPI: Spec.Redeem},
		},
	}
}

// IssueResponse is the issued link with its download URL.
type IssueResponse struct {
	*Link
	URL string `json:"url"`
}

func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var cmd IssueCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	cmd.OwnerID = identity.FromContext(r.Context())

	link, err := h.sys.Issue(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, IssueResponse{
		Link: link,
		URL:  fmt.Sprintf("%s/shares/%s/download", h.baseURL, link.Token),
	})
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	redemption, data, err := h.sys.Redeem(r.Context(), r.PathValue("token"))
	if err != nil {
		h.fail(w, err)
		return
	}

	documents.WriteFile(w, "attachment", redemption.Document.Filename, data)
}

func (h *Handler) Inspect(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.sys.Inspect(r.Context(), r.PathValue("token"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, redemption)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	requester := identity.FromContext(r.Context())

	if err := h.sys.Deactivate(r.Context(), r.PathValue("token"), requester); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), identity.FromContext(r.Context()), page, filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	kind := ErrorKind(err)
	if status == http.StatusInternalServerError {
		status = documents.MapHTTPStatus(err)
		kind = documents.ErrorKind(err)
	}
	handlers.RespondErrorKind(w, h.logger, status, kind, err)
}
