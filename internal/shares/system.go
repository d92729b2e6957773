package shares

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/google/uuid"
)

// Documents is the slice of the document registry the ledger reads.
type Documents interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	Data(ctx context.Context, id uuid.UUID) (*documents.Document, []byte, error)
}

// System defines the share-link ledger operations.
type System interface {
	Issue(ctx context.Context, cmd IssueCommand) (*Link, error)

	// Redeem consumes one download and returns the document with its bytes.
	Redeem(ctx context.Context, token string) (*Redemption, []byte, error)

	// Inspect applies the redemption checks without consuming a download.
	Inspect(ctx context.Context, token string) (*Redemption, error)

	Deactivate(ctx context.Context, token string, requester *string) error

	// List returns the requester's links. Anonymous requesters are ErrForbidden.
	List(ctx context.Context, requester *string, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Link], error)
}

// Options tunes a System.
type Options struct {
	MaxTTL     time.Duration
	Pagination pagination.Config
	Clock      func() time.Time
}

type system struct {
	repo   Repository
	docs   Documents
	logger *slog.Logger
	opts   Options
}

// New creates the share ledger System.
func New(repo Repository, docs Documents, logger *slog.Logger, opts Options) System {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Pagination.DefaultPageSize == 0 {
		opts.Pagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	}

	return &system{
		repo:   repo,
		docs:   docs,
		logger: logger.With("system", "shares"),
		opts:   opts,
	}
}

func (s *system) Issue(ctx context.Context, cmd IssueCommand) (*Link, error) {
	now := s.opts.Clock()

	if cmd.MaxDownloads != nil && *cmd.MaxDownloads < 1 {
		return nil, fmt.Errorf("%w: max_downloads must be >= 1", ErrInvalidRequest)
	}

	expires, err := s.expiry(cmd, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.docs.Find(ctx, cmd.DocumentID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, cmd.DocumentID)
		}
		return nil, err
	}

	link := &Link{
		ID:            uuid.New(),
		Token:         uuid.NewString(),
		DocumentID:    cmd.DocumentID,
		OwnerID:       cmd.OwnerID,
		CreatedAt:     now,
		ExpiresAt:     expires,
		MaxDownloads:  cmd.MaxDownloads,
		Active:        true,
		AllowDownload: cmd.AllowDownload == nil || *cmd.AllowDownload,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}

	s.logger.Info("share link issued", "id", link.ID, "document_id", link.DocumentID)
	return link, nil
}

// Redeem reads the document before consuming a download so a failed read
// leaves the counter untouched.
func (s *system) Redeem(ctx context.Context, token string) (*Redemption, []byte, error) {
	current, err := s.Inspect(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if !current.Link.AllowDownload {
		return nil, nil, ErrViewOnly
	}

	doc, data, err := s.docs.Data(ctx, current.Link.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, current.Link.DocumentID)
		}
		return nil, nil, err
	}

	link, err := s.repo.Redeem(ctx, token, s.opts.Clock())
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("share link redeemed",
		"id", link.ID,
		"document_id", link.DocumentID,
		"download_count", link.DownloadCount,
	)
	return newRedemption(link, doc), data, nil
}

func (s *system) Inspect(ctx context.Context, token string) (*Redemption, error) {
	link, err := s.repo.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := link.State(s.opts.Clock()).Err(); err != nil {
		return nil, err
	}

	doc, err := s.docs.Find(ctx, link.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, link.DocumentID)
		}
		return nil, err
	}

	return newRedemption(link, doc), nil
}

func (s *system) Deactivate(ctx context.Context, token string, requester *string) error {
	link, err := s.repo.Find(ctx, token)
	if err != nil {
		return err
	}

	if link.OwnerID != nil && (requester == nil || *requester != *link.OwnerID) {
		return ErrForbidden
	}

	if !link.Active {
		return nil
	}

	if err := s.repo.Deactivate(ctx, token, s.opts.Clock()); err != nil {
		return err
	}

	s.logger.Info("share link deactivated", "id", link.ID)
	return nil
}

func (s *system) List(ctx context.Context, requester *string, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Link], error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: listing requires an authenticated owner", ErrForbidden)
	}

	page.Normalize(s.opts.Pagination)
	filters.OwnerID = requester
	return s.repo.List(ctx, page, filters)
}

func (s *system) expiry(cmd IssueCommand, now time.Time) (*time.Time, error) {
	expires := cmd.ExpiresAt

	if expires == nil && cmd.TTL != "" {
		ttl, err := time.ParseDuration(cmd.TTL)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("%w: ttl %q must be a positive duration", ErrInvalidRequest, cmd.TTL)
		}
		at := now.Add(ttl)
		expires = &at
	}

	if s.opts.MaxTTL > 0 {
		limit := now.Add(s.opts.MaxTTL)
		if expires == nil {
			expires = &limit
		} else if expires.After(limit) {
			return nil, fmt.Errorf("%w: expiry exceeds the maximum lifetime of %s", ErrInvalidRequest, s.opts.MaxTTL)
		}
	}

	return expires, nil
}
