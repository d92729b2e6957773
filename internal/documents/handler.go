package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/JaimeStill/pdf-lab/pkg/handlers"
	"github.com/JaimeStill/pdf-lab/pkg/identity"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
	"github.com/google/uuid"
)

// multipart overhead allowed on top of the file size limit.
const formOverhead = 1 << 20

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Documents"},
		Description: "Document upload, inspection and transforms",
		Schemas:     Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
			{Method: "POST", Pattern: "/batch", Handler: h.Batch, OpenAPI: Spec.Batch},
			{Method: "POST", Pattern: "/merge", Handler: h.Merge, OpenAPI: Spec.Merge},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download, OpenAPI: Spec.Download},
			{Method: "GET", Pattern: "/{id}/view", Handler: h.View, OpenAPI: Spec.View},
			{Method: "GET", Pattern: "/{id}/metadata", Handler: h.Metadata, OpenAPI: Spec.Metadata},
			{Method: "POST", Pattern: "/{id}/split", Handler: h.Split, OpenAPI: Spec.Split},
			{Method: "POST", Pattern: "/{id}/text", Handler: h.InsertText, OpenAPI: Spec.InsertText},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(w, fmt.Errorf("%w: request exceeds %d bytes", ErrFileTooLarge, h.maxUploadSize))
			return
		}
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, fmt.Errorf("%w: multipart field \"file\" is required", ErrInvalidRequest))
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		h.fail(w, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, header.Size, h.maxUploadSize))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidFile, err))
		return
	}

	cmd := UploadCommand{
		Name:     r.FormValue("name"),
		Filename: header.Filename,
		Data:     data,
		OwnerID:  identity.FromContext(r.Context()),
	}

	doc, err := h.sys.Upload(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// Batch reads every "files" part and hands them to UploadBatch. Files over
// the size limit are left to the system to reject individually.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBatchFiles*h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fail(w, fmt.Errorf("%w: request exceeds %d bytes", ErrFileTooLarge, maxErr.Limit))
			return
		}
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) > MaxBatchFiles {
		h.fail(w, fmt.Errorf("%w: %d files exceeds the batch limit of %d", ErrInvalidRequest, len(headers), MaxBatchFiles))
		return
	}

	owner := identity.FromContext(r.Context())
	cmds := make([]UploadCommand, 0, len(headers))

	for _, header := range headers {
		data, err := readPart(header)
		if err != nil {
			h.fail(w, fmt.Errorf("%w: %s: %w", ErrInvalidFile, header.Filename, err))
			return
		}
		cmds = append(cmds, UploadCommand{
			Filename: header.Filename,
			Data:     data,
			OwnerID:  owner,
		})
	}

	result, err := h.sys.UploadBatch(r.Context(), cmds)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, result)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	purge, _ := strconv.ParseBool(r.URL.Query().Get("purge"))

	var err error
	if purge {
		err = h.sys.Purge(r.Context(), id)
	} else {
		err = h.sys.Delete(r.Context(), id)
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *Handler) Metadata(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	md, err := h.sys.Metadata(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, md)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var cmd MergeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.OwnerID = identity.FromContext(r.Context())

	doc, err := h.sys.Merge(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// SplitRequest accepts explicit ranges or a page expression such as "1-2,3".
type SplitRequest struct {
	Ranges      []pdf.PageRange `json:"ranges,omitempty"`
	Pages       string          `json:"pages,omitempty"`
	OutputNames []string        `json:"output_names,omitempty"`
}

func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req SplitRequest
	if !h.decode(w, r, &req) {
		return
	}

	ranges := req.Ranges
	if req.Pages != "" {
		if len(ranges) > 0 {
			h.fail(w, fmt.Errorf("%w: specify either ranges or pages", ErrInvalidRequest))
			return
		}

		doc, err := h.sys.Find(r.Context(), id)
		if err != nil {
			h.fail(w, err)
			return
		}

		ranges, err = pdf.ParsePageRanges(req.Pages, doc.PageCount)
		if err != nil {
			h.fail(w, err)
			return
		}
	}

	cmd := SplitCommand{
		SourceID:    id,
		Ranges:      ranges,
		OutputNames: req.OutputNames,
		OwnerID:     identity.FromContext(r.Context()),
	}

	docs, err := h.sys.Split(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, docs)
}

func (h *Handler) InsertText(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd InsertTextCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.SourceID = id
	cmd.OwnerID = identity.FromContext(r.Context())

	doc, err := h.sys.InsertText(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, data, err := h.sys.Data(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteFile(w, disposition, doc.Filename, data)
}

// WriteFile streams PDF bytes with the given Content-Disposition type.
func WriteFile(w http.ResponseWriter, disposition, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: invalid document id", ErrInvalidRequest))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.fail(w, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondErrorKind(w, h.logger, MapHTTPStatus(err), ErrorKind(err), err)
}
