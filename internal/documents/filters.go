package documents

import (
	"net/url"

	"github.com/JaimeStill/pdf-lab/pkg/query"
)

var projection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("filename", "Filename").
	Project("storage_key", "StorageKey").
	Project("checksum", "Checksum").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("title", "Title").
	Project("author", "Author").
	Project("subject", "Subject").
	Project("creator", "Creator").
	Project("producer", "Producer").
	Project("creation_date", "CreationDate").
	Project("modification_date", "ModificationDate").
	Project("encrypted", "Encrypted").
	Project("provenance", "Provenance").
	Project("sources", "Sources").
	Project("owner_id", "OwnerID").
	Project("deleted_at", "DeletedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional criteria for filtering document queries.
// Soft-deleted documents are never listed.
type Filters struct {
	Name       *string
	OwnerID    *string
	Provenance *string
}

// FiltersFromQuery extracts document filters from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if o := values.Get("owner_id"); o != "" {
		f.OwnerID = &o
	}
	if p := values.Get("provenance"); p != "" {
		f.Provenance = &p
	}

	return f
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereNull("DeletedAt").
		WhereContains("Name", f.Name).
		WhereEquals("OwnerID", f.OwnerID).
		WhereEquals("Provenance", f.Provenance)
}
