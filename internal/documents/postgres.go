package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/query"
	"github.com/JaimeStill/pdf-lab/pkg/repository"
	"github.com/google/uuid"
)

type postgres struct {
	db *sql.DB
}

// NewPostgres creates a Repository backed by the documents table.
func NewPostgres(db *sql.DB) Repository {
	return &postgres{db: db}
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	var sources []byte
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Filename,
		&d.StorageKey,
		&d.Checksum,
		&d.SizeBytes,
		&d.PageCount,
		&d.Title,
		&d.Author,
		&d.Subject,
		&d.Creator,
		&d.Producer,
		&d.CreationDate,
		&d.ModificationDate,
		&d.Encrypted,
		&d.Provenance,
		&sources,
		&d.OwnerID,
		&d.DeletedAt,
		&d.CreatedAt,
	)
	if err != nil {
		return d, err
	}

	d.Sources = []uuid.UUID{}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &d.Sources); err != nil {
			return d, fmt.Errorf("decode sources: %w", err)
		}
	}
	return d, nil
}

func (p *postgres) Create(ctx context.Context, doc *Document) error {
	sources, err := json.Marshal(doc.Sources)
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	q := `INSERT INTO documents(
			id, name, filename, storage_key, checksum, size_bytes, page_count,
			title, author, subject, creator, producer, creation_date, modification_date,
			encrypted, provenance, sources, owner_id, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q,
			doc.ID, doc.Name, doc.Filename, doc.StorageKey, doc.Checksum, doc.SizeBytes, doc.PageCount,
			doc.Title, doc.Author, doc.Subject, doc.Creator, doc.Producer, doc.CreationDate, doc.ModificationDate,
			doc.Encrypted, string(doc.Provenance), string(sources), doc.OwnerID, doc.CreatedAt,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (p *postgres) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("ID", id)

	doc, err := repository.QueryOne(ctx, p.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (p *postgres) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := `UPDATE documents SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, id, at)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (p *postgres) Delete(ctx context.Context, id uuid.UUID) error {
	q := `DELETE FROM documents WHERE id = $1`

	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q, id)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (p *postgres) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Document], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Filename", "Title")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, p.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}
