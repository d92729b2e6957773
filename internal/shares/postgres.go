package shares

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/query"
	"github.com/JaimeStill/pdf-lab/pkg/repository"
)

type postgres struct {
	db *sql.DB
}

// NewPostgres creates a Repository backed by the share_links table.
func NewPostgres(db *sql.DB) Repository {
	return &postgres{db: db}
}

func scanLink(s repository.Scanner) (Link, error) {
	var l Link
	var maxDownloads sql.NullInt64
	err := s.Scan(
		&l.ID,
		&l.Token,
		&l.DocumentID,
		&l.OwnerID,
		&l.CreatedAt,
		&l.ExpiresAt,
		&maxDownloads,
		&l.DownloadCount,
		&l.Active,
		&l.AllowDownload,
		&l.DeactivatedAt,
	)
	if maxDownloads.Valid {
		n := int(maxDownloads.Int64)
		l.MaxDownloads = &n
	}
	return l, err
}

func (p *postgres) Create(ctx context.Context, link *Link) error {
	q := `INSERT INTO share_links(
			id, token, document_id, owner_id, created_at, expires_at,
			max_downloads, download_count, active, allow_download)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, q,
			link.ID, link.Token, link.DocumentID, link.OwnerID, link.CreatedAt, link.ExpiresAt,
			link.MaxDownloads, link.DownloadCount, link.Active, link.AllowDownload,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (p *postgres) Find(ctx context.Context, token string) (*Link, error) {
	q, args := query.
		NewBuilder(projection).
		BuildSingle("Token", token)

	link, err := repository.QueryOne(ctx, p.db, q, args, scanLink)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &link, nil
}

// Redeem performs the checks and the increment in one conditional UPDATE.
// When no row qualifies, the current row is read to report why.
func (p *postgres) Redeem(ctx context.Context, token string, now time.Time) (*Link, error) {
	q := fmt.Sprintf(`UPDATE %s
		SET download_count = s.download_count + 1
		WHERE s.token = $1
			AND s.active
			AND s.allow_download
			AND (s.expires_at IS NULL OR s.expires_at >= $2)
			AND (s.max_downloads IS NULL OR s.download_count < s.max_downloads)
		RETURNING %s`, projection.Table(), projection.Columns())

	link, err := repository.QueryOne(ctx, p.db, q, []any{token, now}, scanLink)
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("redeem share link: %w", err)
	}

	current, err := p.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if stateErr := current.State(now).Err(); stateErr != nil {
		return nil, stateErr
	}
	if !current.AllowDownload {
		return nil, ErrViewOnly
	}
	return nil, ErrLimitReached
}

func (p *postgres) Deactivate(ctx context.Context, token string, at time.Time) error {
	q := `UPDATE share_links SET active = false, deactivated_at = $2 WHERE token = $1 AND active`

	if _, err := p.db.ExecContext(ctx, q, token, at); err != nil {
		return fmt.Errorf("deactivate share link: %w", err)
	}
	return nil
}

func (p *postgres) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Link], error) {
	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count share links: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	links, err := repository.QueryMany(ctx, p.db, pageSQL, pageArgs, scanLink)
	if err != nil {
		return nil, fmt.Errorf("query share links: %w", err)
	}

	result := pagination.NewPageResult(links, total, page.Page, page.PageSize)
	return &result, nil
}
