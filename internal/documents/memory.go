package documents

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/query"
	"github.com/google/uuid"
)

type memory struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]Document
}

// NewMemory creates an in-process Repository. Records do not survive a restart.
func NewMemory() Repository {
	return &memory{docs: make(map[uuid.UUID]Document)}
}

func (m *memory) Create(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[doc.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.docs {
		if existing.StorageKey == doc.StorageKey {
			return ErrDuplicate
		}
	}

	m.docs[doc.ID] = clone(*doc)
	return nil
}

func (m *memory) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(doc)
	return &out, nil
}

func (m *memory) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	doc.DeletedAt = &at
	m.docs[id] = doc
	return nil
}

func (m *memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memory) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	m.mu.RLock()
	matched := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if filters.match(doc) && matchSearch(doc, page.Search) {
			matched = append(matched, clone(doc))
		}
	}
	m.mu.RUnlock()

	sortFields := page.Sort
	if len(sortFields) == 0 {
		sortFields = []query.SortField{defaultSort}
	}
	slices.SortStableFunc(matched, func(a, b Document) int {
		for _, f := range sortFields {
			c := compareField(a, b, f.Field)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(matched[start:end], total, page.Page, page.PageSize)
	return &result, nil
}

func (f Filters) match(d Document) bool {
	if d.DeletedAt != nil {
		return false
	}
	if f.Name != nil && !containsFold(d.Name, *f.Name) {
		return false
	}
	if f.OwnerID != nil && (d.OwnerID == nil || *d.OwnerID != *f.OwnerID) {
		return false
	}
	if f.Provenance != nil && string(d.Provenance) != *f.Provenance {
		return false
	}
	return true
}

func matchSearch(d Document, search *string) bool {
	if search == nil || *search == "" {
		return true
	}
	return containsFold(d.Name, *search) ||
		containsFold(d.Filename, *search) ||
		containsFold(d.Title, *search)
}

func compareField(a, b Document, field string) int {
	switch field {
	case "Name":
		return strings.Compare(a.Name, b.Name)
	case "Filename":
		return strings.Compare(a.Filename, b.Filename)
	case "SizeBytes":
		return cmp.Compare(a.SizeBytes, b.SizeBytes)
	case "PageCount":
		return cmp.Compare(a.PageCount, b.PageCount)
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func clone(d Document) Document {
	d.Sources = slices.Clone(d.Sources)
	if d.OwnerID != nil {
		owner := *d.OwnerID
		d.OwnerID = &owner
	}
	if d.DeletedAt != nil {
		at := *d.DeletedAt
		d.DeletedAt = &at
	}
	return d
}
