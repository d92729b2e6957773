package shares

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/query"
)

type memory struct {
	mu    sync.Mutex
	links map[string]*Link
}

// NewMemory creates a process-local Repository. A single mutex serialises
// every counter check and increment.
func NewMemory() Repository {
	return &memory{links: make(map[string]*Link)}
}

func (m *memory) Create(ctx context.Context, link *Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Token]; ok {
		return ErrDuplicate
	}
	for _, l := range m.links {
		if l.ID == link.ID {
			return ErrDuplicate
		}
	}

	stored := clone(*link)
	m.links[link.Token] = &stored
	return nil
}

func (m *memory) Find(ctx context.Context, token string) (*Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[token]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(*link)
	return &out, nil
}

func (m *memory) Redeem(ctx context.Context, token string, now time.Time) (*Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[token]
	if !ok {
		return nil, ErrNotFound
	}
	if err := link.State(now).Err(); err != nil {
		return nil, err
	}
	if !link.AllowDownload {
		return nil, ErrViewOnly
	}

	link.DownloadCount++
	out := clone(*link)
	return &out, nil
}

func (m *memory) Deactivate(ctx context.Context, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[token]
	if !ok {
		return ErrNotFound
	}
	if link.Active {
		link.Active = false
		link.DeactivatedAt = &at
	}
	return nil
}

func (m *memory) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Link], error) {
	m.mu.Lock()
	matched := make([]Link, 0, len(m.links))
	for _, link := range m.links {
		if filters.match(link) {
			matched = append(matched, clone(*link))
		}
	}
	m.mu.Unlock()

	sortFields := page.Sort
	if len(sortFields) == 0 {
		sortFields = []query.SortField{defaultSort}
	}
	slices.SortStableFunc(matched, func(a, b Link) int {
		for _, f := range sortFields {
			c := compareField(a, b, f.Field)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.Token, b.Token)
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(matched[start:end], total, page.Page, page.PageSize)
	return &result, nil
}

func (f Filters) match(l *Link) bool {
	if f.OwnerID != nil && (l.OwnerID == nil || *l.OwnerID != *f.OwnerID) {
		return false
	}
	if f.DocumentID != nil && l.DocumentID != *f.DocumentID {
		return false
	}
	if f.Active != nil && l.Active != *f.Active {
		return false
	}
	return true
}

func compareField(a, b Link, field string) int {
	switch field {
	case "CreatedAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "DownloadCount":
		return cmp.Compare(a.DownloadCount, b.DownloadCount)
	}
	return 0
}

func clone(l Link) Link {
	if l.OwnerID != nil {
		v := *l.OwnerID
		l.OwnerID = &v
	}
	if l.ExpiresAt != nil {
		v := *l.ExpiresAt
		l.ExpiresAt = &v
	}
	if l.MaxDownloads != nil {
		v := *l.MaxDownloads
		l.MaxDownloads = &v
	}
	if l.DeactivatedAt != nil {
		v := *l.DeactivatedAt
		l.DeactivatedAt = &v
	}
	return l
}
