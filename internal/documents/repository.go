package documents

import (
	"context"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/google/uuid"
)

// Repository persists document records. Page counts are written once at
// Create and never updated.
type Repository interface {
	Create(ctx context.Context, doc *Document) error

	// Find returns the record, including soft-deleted records.
	Find(ctx context.Context, id uuid.UUID) (*Document, error)

	// SoftDelete marks a live record deleted. Returns ErrNotFound when the
	// record is absent or already deleted.
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes the record entirely.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error)
}
