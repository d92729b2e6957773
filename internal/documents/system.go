package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// System defines the document lifecycle operations.
type System interface {
	Upload(ctx context.Context, cmd UploadCommand) (*Document, error)

	// UploadBatch uploads up to MaxBatchFiles files independently.
	UploadBatch(ctx context.Context, cmds []UploadCommand) (*BatchResult, error)

	// Find returns a live document. Soft-deleted documents are ErrNotFound.
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// Data returns a live document together with its bytes.
	Data(ctx context.Context, id uuid.UUID) (*Document, []byte, error)

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)

	// Delete soft deletes the document and purges its bytes.
	Delete(ctx context.Context, id uuid.UUID) error

	// Purge removes the record and its bytes, whether or not it was soft deleted.
	Purge(ctx context.Context, id uuid.UUID) error

	Merge(ctx context.Context, cmd MergeCommand) (*Document, error)
	Split(ctx context.Context, cmd SplitCommand) ([]Document, error)
	InsertText(ctx context.Context, cmd InsertTextCommand) (*Document, error)

	// Metadata re-extracts metadata from the stored bytes and checks it
	// against the record. Disagreement is ErrIntegrity.
	Metadata(ctx context.Context, id uuid.UUID) (*pdf.Metadata, error)
}

// Options tunes a System.
type Options struct {
	MaxMergeSources  int
	TransformTimeout time.Duration
	Pagination       pagination.Config
	Clock            func() time.Time
}

type system struct {
	repo      Repository
	artifacts artifacts.Store
	engine    *pdf.Engine
	logger    *slog.Logger
	opts      Options
}

// New creates the document System.
func New(repo Repository, store artifacts.Store, engine *pdf.Engine, logger *slog.Logger, opts Options) System {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxMergeSources < 2 {
		opts.MaxMergeSources = 20
	}
	if opts.Pagination.DefaultPageSize == 0 {
		opts.Pagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	}

	return &system{
		repo:      repo,
		artifacts: store,
		engine:    engine,
		logger:    logger.With("system", "documents"),
		opts:      opts,
	}
}

func (s *system) Upload(ctx context.Context, cmd UploadCommand) (*Document, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	if max := s.engine.MaxSize(); max > 0 && int64(len(cmd.Data)) > max {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(cmd.Data), max)
	}

	doc, err := s.engine.Validate(cmd.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	filename := sanitizeFilename(cmd.Filename)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = filename
	}

	record := &Document{
		Name:       name,
		Filename:   filename,
		Provenance: ProvenanceOriginal,
		Sources:    []uuid.UUID{},
		OwnerID:    cmd.OwnerID,
	}

	return s.persist(ctx, record, doc, cmd.Data)
}

func (s *system) UploadBatch(ctx context.Context, cmds []UploadCommand) (*BatchResult, error) {
	if len(cmds) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", ErrInvalidRequest)
	}
	if len(cmds) > MaxBatchFiles {
		return nil, fmt.Errorf("%w: %d files exceeds the batch limit of %d", ErrInvalidRequest, len(cmds), MaxBatchFiles)
	}

	result := &BatchResult{Documents: make([]Document, 0, len(cmds))}

	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.Upload(ctx, cmd)
		if err != nil {
			result.Errors = append(result.Errors, BatchError{
				Filename: cmd.Filename,
				Kind:     ErrorKind(err),
				Message:  err.Error(),
			})
			continue
		}
		result.Documents = append(result.Documents, *doc)
	}

	s.logger.Info("batch uploaded", "created", len(result.Documents), "failed", len(result.Errors))
	return result, nil
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Deleted() {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *system) Data(ctx context.Context, id uuid.UUID) (*Document, []byte, error) {
	doc, err := s.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.artifacts.Get(ctx, doc.Pointer())
	if err != nil {
		return nil, nil, fmt.Errorf("document %s: %w", id, err)
	}
	return doc, data, nil
}

func (s *system) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	page.Normalize(s.opts.Pagination)
	return s.repo.List(ctx, page, filters)
}

func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id, s.opts.Clock()); err != nil {
		return err
	}

	if err := s.artifacts.Delete(ctx, doc.Pointer()); err != nil && !errors.Is(err, artifacts.ErrNotFound) {
		s.logger.Error("artifact purge failed after soft delete", "id", id, "storage_key", doc.StorageKey, "error", err)
	}

	s.logger.Info("document deleted", "id", id)
	return nil
}

func (s *system) Purge(ctx context.Context, id uuid.UUID) error {
	doc, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.artifacts.Delete(ctx, doc.Pointer()); err != nil && !errors.Is(err, artifacts.ErrNotFound) {
		s.logger.Error("artifact purge failed after hard delete", "id", id, "storage_key", doc.StorageKey, "error", err)
	}

	s.logger.Info("document purged", "id", id)
	return nil
}

func (s *system) Merge(ctx context.Context, cmd MergeCommand) (*Document, error) {
	if len(cmd.SourceIDs) < 2 {
		return nil, fmt.Errorf("%w: merge requires at least 2 source documents", ErrInvalidRequest)
	}
	if len(cmd.SourceIDs) > s.opts.MaxMergeSources {
		return nil, fmt.Errorf("%w: merge accepts at most %d source documents", ErrInvalidRequest, s.opts.MaxMergeSources)
	}

	ctx, cancel := s.transformContext(ctx)
	defer cancel()

	sources, err := s.loadSources(ctx, cmd.SourceIDs)
	if err != nil {
		return nil, err
	}

	docs := make([]*pdf.Document, len(sources))
	for i, src := range sources {
		docs[i] = src.pdf
	}

	result, err := s.engine.Merge(ctx, docs)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(cmd.OutputName)
	if name == "" {
		name = fmt.Sprintf("merged_%d.pdf", s.opts.Clock().Unix())
	}

	record := &Document{
		Name:       name,
		Filename:   pdfFilename(name),
		Provenance: ProvenanceMerged,
		Sources:    cmd.SourceIDs,
		OwnerID:    cmd.OwnerID,
	}

	return s.persist(ctx, record, result.Document, result.Data)
}

func (s *system) Split(ctx context.Context, cmd SplitCommand) ([]Document, error) {
	if len(cmd.Ranges) == 0 {
		return nil, fmt.Errorf("%w: at least one page range is required", ErrInvalidRequest)
	}
	if len(cmd.OutputNames) > len(cmd.Ranges) {
		return nil, fmt.Errorf("%w: %d output names for %d ranges", ErrInvalidRequest, len(cmd.OutputNames), len(cmd.Ranges))
	}

	ctx, cancel := s.transformContext(ctx)
	defer cancel()

	src, err := s.loadSource(ctx, cmd.SourceID)
	if err != nil {
		return nil, err
	}

	results, err := s.engine.Split(ctx, src.pdf, cmd.Ranges)
	if err != nil {
		return nil, err
	}

	created := make([]Document, 0, len(results))
	for i, result := range results {
		name := fmt.Sprintf("split_%d_%s", i+1, src.record.Name)
		if i < len(cmd.OutputNames) && strings.TrimSpace(cmd.OutputNames[i]) != "" {
			name = strings.TrimSpace(cmd.OutputNames[i])
		}

		record := &Document{
			Name:       name,
			Filename:   pdfFilename(name),
			Provenance: ProvenanceSplit,
			Sources:    []uuid.UUID{src.record.ID},
			OwnerID:    cmd.OwnerID,
		}

		doc, err := s.persist(ctx, record, result.Document, result.Data)
		if err != nil {
			s.rollback(created)
			return nil, err
		}
		created = append(created, *doc)
	}

	return created, nil
}

func (s *system) InsertText(ctx context.Context, cmd InsertTextCommand) (*Document, error) {
	ctx, cancel := s.transformContext(ctx)
	defer cancel()

	src, err := s.loadSource(ctx, cmd.SourceID)
	if err != nil {
		return nil, err
	}

	ins, err := textInsertion(src.pdf, cmd)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.InsertText(ctx, src.pdf, ins)
	if err != nil {
		return nil, err
	}

	name := "edited_" + src.record.Name
	record := &Document{
		Name:       name,
		Filename:   pdfFilename(name),
		Provenance: ProvenanceEdited,
		Sources:    []uuid.UUID{src.record.ID},
		OwnerID:    cmd.OwnerID,
	}

	return s.persist(ctx, record, result.Document, result.Data)
}

func (s *system) Metadata(ctx context.Context, id uuid.UUID) (*pdf.Metadata, error) {
	src, err := s.loadSource(ctx, id)
	if err != nil {
		return nil, err
	}

	md := pdf.Extract(src.pdf, s.opts.Clock())
	if md.PageCount != src.record.PageCount {
		return nil, fmt.Errorf("%w: document %s records %d pages, stored bytes have %d",
			ErrIntegrity, id, src.record.PageCount, md.PageCount)
	}
	return &md, nil
}

type source struct {
	record *Document
	pdf    *pdf.Document
}

// loadSource reads a live document and verifies its bytes against the record.
func (s *system) loadSource(ctx context.Context, id uuid.UUID) (*source, error) {
	doc, data, err := s.Data(ctx, id)
	if err != nil {
		return nil, err
	}

	if !artifacts.Verify(doc.Pointer(), data) {
		return nil, fmt.Errorf("%w: document %s checksum mismatch", ErrIntegrity, id)
	}

	parsed, err := s.engine.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", ErrIntegrity, id, err)
	}

	return &source{record: doc, pdf: parsed}, nil
}

// loadSources reads sources concurrently and returns them in id order.
func (s *system) loadSources(ctx context.Context, ids []uuid.UUID) ([]*source, error) {
	sources := make([]*source, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range ids {
		g.Go(func() error {
			src, err := s.loadSource(gctx, id)
			if err != nil {
				return err
			}
			sources[i] = src
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// persist stores data, then creates the record. The artifact is removed if
// the record cannot be committed, so no bytes outlive a failed operation.
func (s *system) persist(ctx context.Context, record *Document, parsed *pdf.Document, data []byte) (*Document, error) {
	now := s.opts.Clock()
	md := pdf.Extract(parsed, now)

	ptr, err := s.artifacts.Put(ctx, data)
	if err != nil {
		return nil, err
	}

	record.ID = uuid.New()
	record.StorageKey = ptr.Key
	record.Checksum = ptr.Checksum
	record.SizeBytes = ptr.Size
	record.CreatedAt = now
	record.applyMetadata(md)

	if err := ctx.Err(); err != nil {
		s.discard(ptr)
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.discard(ptr)
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document created",
		"id", record.ID,
		"name", record.Name,
		"provenance", record.Provenance,
		"pages", record.PageCount,
	)
	return record, nil
}

func (s *system) discard(ptr artifacts.Pointer) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.artifacts.Delete(ctx, ptr); err != nil && !errors.Is(err, artifacts.ErrNotFound) {
		s.logger.Error("artifact cleanup failed", "storage_key", ptr.Key, "error", err)
	}
}

// rollback removes records committed earlier in a failed multi-output transform.
func (s *system) rollback(docs []Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, doc := range docs {
		if err := s.repo.Delete(ctx, doc.ID); err != nil {
			s.logger.Error("rollback failed", "id", doc.ID, "error", err)
			continue
		}
		s.discard(doc.Pointer())
	}
}

func (s *system) transformContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.TransformTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.TransformTimeout)
	}
	return context.WithCancel(ctx)
}

// Text insertion defaults.
const (
	defaultTextX     = 50.0
	defaultTextInset = 50.0
	defaultFontSize  = 12.0
)

func textInsertion(doc *pdf.Document, cmd InsertTextCommand) (pdf.TextInsertion, error) {
	ins := pdf.TextInsertion{
		Page:     cmd.Page,
		Text:     cmd.Text,
		X:        defaultTextX,
		FontSize: defaultFontSize,
		Color:    pdf.Black,
	}

	if cmd.X != nil {
		ins.X = *cmd.X
	}
	if cmd.FontSize != nil {
		ins.FontSize = *cmd.FontSize
	}
	if cmd.Color != nil {
		ins.Color = *cmd.Color
	}

	if cmd.Y != nil {
		ins.Y = *cmd.Y
	} else {
		_, height, err := doc.PageSize(cmd.Page)
		if err != nil {
			return ins, err
		}
		ins.Y = height - defaultTextInset
	}

	return ins, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "document.pdf"
	}
	replacer := strings.NewReplacer(
		" ", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}

func pdfFilename(name string) string {
	name = sanitizeFilename(name)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
