// Package shares implements the share-link ledger: time- and count-bounded
// tokens granting read access to one document.
package shares

import (
	"time"

	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/google/uuid"
)

// Link is a share token bound to a document.
type Link struct {
	ID            uuid.UUID  `json:"id"`
	Token         string     `json:"token"`
	DocumentID    uuid.UUID  `json:"document_id"`
	OwnerID       *string    `json:"owner_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `json:"download_count"`
	Active        bool       `json:"active"`
	AllowDownload bool       `json:"allow_download"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// State classifies a link at now.
type State string

const (
	StateActive      State = "active"
	StateExpired     State = "expired"
	StateExhausted   State = "exhausted"
	StateDeactivated State = "deactivated"
)

// State reports the first failing redemption check, or StateActive.
func (l *Link) State(now time.Time) State {
	switch {
	case !l.Active:
		return StateDeactivated
	case l.ExpiresAt != nil && now.After(*l.ExpiresAt):
		return StateExpired
	case l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads:
		return StateExhausted
	}
	return StateActive
}

// Err converts a non-active state to its sentinel.
func (s State) Err() error {
	switch s {
	case StateDeactivated:
		return ErrDeactivated
	case StateExpired:
		return ErrExpired
	case StateExhausted:
		return ErrLimitReached
	}
	return nil
}

// Remaining reports downloads left, or nil when unlimited.
func (l *Link) Remaining() *int {
	if l.MaxDownloads == nil {
		return nil
	}
	n := max(*l.MaxDownloads-l.DownloadCount, 0)
	return &n
}

// IssueCommand requests a new link. TTL is relative to issue time and
// ignored when ExpiresAt is set. AllowDownload defaults to true; a
// view-only link can be inspected but never redeemed.
type IssueCommand struct {
	DocumentID    uuid.UUID  `json:"document_id"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	TTL           string     `json:"ttl,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	AllowDownload *bool      `json:"allow_download,omitempty"`
	OwnerID       *string    `json:"-"`
}

// Redemption is the result of consuming or inspecting a link.
type Redemption struct {
	Link      *Link               `json:"link"`
	Document  *documents.Document `json:"document"`
	Remaining *int                `json:"remaining_downloads,omitempty"`
}

func newRedemption(link *Link, doc *documents.Document) *Redemption {
	return &Redemption{Link: link, Document: doc, Remaining: link.Remaining()}
}
