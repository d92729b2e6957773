package previews

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/pdf-lab/pkg/handlers"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
	"github.com/google/uuid"
)

// Handler serves rendered page previews.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a preview handler.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "previews"),
	}
}

// Routes returns the preview route group, mounted beside the document routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Previews"},
		Description: "Page rendering",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}/pages/{page}/preview", Handler: h.Preview, OpenAPI: Spec.Preview},
		},
	}
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: invalid document id", ErrInvalidOption))
		return
	}

	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: page must be an integer", ErrPageOutOfRange))
		return
	}

	opts, err := OptionsFromQuery(r.URL.Query())
	if err != nil {
		h.fail(w, err)
		return
	}

	preview, err := h.sys.Render(r.Context(), id, page, opts)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(preview.Data)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondErrorKind(w, h.logger, MapHTTPStatus(err), ErrorKind(err), err)
}
