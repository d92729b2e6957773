package shares

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/query"
	"github.com/google/uuid"
)

// Repository persists share links. Redeem is the only operation that
// changes the download counter.
type Repository interface {
	Create(ctx context.Context, link *Link) error
	Find(ctx context.Context, token string) (*Link, error)

	// Redeem checks the link is active, unexpired at now, under its limit
	// and downloadable, then increments the counter as one atomic step. A
	// failed check returns the sentinel of the first failing condition.
	Redeem(ctx context.Context, token string, now time.Time) (*Link, error)

	// Deactivate clears the active flag. Already inactive links are left
	// unchanged.
	Deactivate(ctx context.Context, token string, at time.Time) error

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Link], error)
}

var projection = query.NewProjectionMap("public", "share_links", "s").
	Project("id", "ID").
	Project("token", "Token").
	Project("document_id", "DocumentID").
	Project("owner_id", "OwnerID").
	Project("created_at", "CreatedAt").
	Project("expires_at", "ExpiresAt").
	Project("max_downloads", "MaxDownloads").
	Project("download_count", "DownloadCount").
	Project("active", "Active").
	Project("allow_download", "AllowDownload").
	Project("deactivated_at", "DeactivatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional criteria for listing links.
type Filters struct {
	OwnerID    *string
	DocumentID *uuid.UUID
	Active     *bool
}

// FiltersFromQuery extracts link filters from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}
	if a := values.Get("active"); a != "" {
		if active, err := strconv.ParseBool(a); err == nil {
			f.Active = &active
		}
	}

	return f
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("OwnerID", f.OwnerID).
		WhereEquals("Active", f.Active)
	if f.DocumentID != nil {
		b.WhereEquals("DocumentID", *f.DocumentID)
	}
	return b
}
