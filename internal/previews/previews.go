package previews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Renderer rasterises one page of the PDF file at path.
type Renderer interface {
	Render(path string, page int, opts Options) ([]byte, error)
}

type magickRenderer struct{}

// NewRenderer returns the ImageMagick-backed page renderer.
func NewRenderer() Renderer {
	return magickRenderer{}
}

func (magickRenderer) Render(path string, page int, opts Options) ([]byte, error) {
	doc, err := document.OpenPDF(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	renderer, err := image.NewImageMagickRenderer(opts.ImageConfig())
	if err != nil {
		return nil, err
	}

	p, err := doc.ExtractPage(page)
	if err != nil {
		return nil, err
	}

	return p.ToImage(renderer, nil)
}

// Documents is the slice of the document registry previews read.
type Documents interface {
	Data(ctx context.Context, id uuid.UUID) (*documents.Document, []byte, error)
}

// Preview is a rendered page.
type Preview struct {
	Data        []byte
	ContentType string
	Cached      bool
}

// System renders document pages.
type System interface {
	Render(ctx context.Context, id uuid.UUID, page int, opts Options) (*Preview, error)
}

type system struct {
	docs     Documents
	cache    storage.System
	renderer Renderer
	sem      *semaphore.Weighted
	logger   *slog.Logger
}

// New creates the preview System. Concurrent renders are bounded by the
// number of CPUs.
func New(docs Documents, cache storage.System, renderer Renderer, logger *slog.Logger) System {
	return &system{
		docs:     docs,
		cache:    cache,
		renderer: renderer,
		sem:      semaphore.NewWeighted(int64(max(runtime.NumCPU(), 1))),
		logger:   logger.With("system", "previews"),
	}
}

func (s *system) Render(ctx context.Context, id uuid.UUID, page int, opts Options) (*Preview, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	contentType, err := opts.Format.MimeType()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}

	doc, data, err := s.docs.Data(ctx, id)
	if err != nil {
		return nil, err
	}

	if page < 1 || page > doc.PageCount {
		return nil, fmt.Errorf("%w: page %d not in [1-%d]", ErrPageOutOfRange, page, doc.PageCount)
	}

	key := fmt.Sprintf("previews/%s/%d-%s.%s", doc.Checksum, page, opts.fingerprint(), opts.Format)

	if cached, err := s.cache.Retrieve(ctx, key); err == nil {
		return &Preview{Data: cached, ContentType: contentType, Cached: true}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("preview cache read failed", "key", key, "error", err)
	}

	img, err := s.render(ctx, data, page, opts)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Store(ctx, key, img); err != nil && !errors.Is(err, storage.ErrExists) {
		s.logger.Warn("preview cache write failed", "key", key, "error", err)
	}

	s.logger.Info("page rendered", "id", id, "page", page, "format", opts.Format, "dpi", opts.DPI)
	return &Preview{Data: img, ContentType: contentType}, nil
}

func (s *system) render(ctx context.Context, data []byte, page int, opts Options) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	f, err := os.CreateTemp("", "pdf-lab-preview-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	img, err := s.renderer.Render(path, page, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return img, nil
}
