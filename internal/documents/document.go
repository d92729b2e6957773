// Package documents is the document registry and lifecycle: uploads are
// validated and extracted before anything is persisted, transforms produce new
// immutable records, and sources are never rewritten.
package documents

import (
	"time"

	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/google/uuid"
)

// Provenance records how a document came to exist.
type Provenance string

const (
	ProvenanceOriginal Provenance = "original"
	ProvenanceMerged   Provenance = "merged"
	ProvenanceSplit    Provenance = "split"
	ProvenanceEdited   Provenance = "edited"
)

// Valid reports whether p is a known provenance.
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceOriginal, ProvenanceMerged, ProvenanceSplit, ProvenanceEdited:
		return true
	}
	return false
}

// Document is a registry record describing one stored PDF.
type Document struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Filename         string      `json:"filename"`
	StorageKey       string      `json:"storage_key"`
	Checksum         string      `json:"checksum"`
	SizeBytes        int64       `json:"size_bytes"`
	PageCount        int         `json:"page_count"`
	Title            string      `json:"title"`
	Author           string      `json:"author"`
	Subject          string      `json:"subject"`
	Creator          string      `json:"creator"`
	Producer         string      `json:"producer"`
	CreationDate     time.Time   `json:"creation_date"`
	ModificationDate time.Time   `json:"modification_date"`
	Encrypted        bool        `json:"encrypted"`
	Provenance       Provenance  `json:"provenance"`
	Sources          []uuid.UUID `json:"sources"`
	OwnerID          *string     `json:"owner_id,omitempty"`
	DeletedAt        *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Deleted reports whether the record has been soft deleted.
func (d *Document) Deleted() bool {
	return d.DeletedAt != nil
}

// Pointer returns the artifact pointer backing the record.
func (d *Document) Pointer() artifacts.Pointer {
	return artifacts.Pointer{
		Key:      d.StorageKey,
		Checksum: d.Checksum,
		Size:     d.SizeBytes,
	}
}

func (d *Document) applyMetadata(md pdf.Metadata) {
	d.PageCount = md.PageCount
	d.Title = md.Title
	d.Author = md.Author
	d.Subject = md.Subject
	d.Creator = md.Creator
	d.Producer = md.Producer
	d.CreationDate = md.CreationDate
	d.ModificationDate = md.ModificationDate
	d.Encrypted = md.Encrypted
}

// UploadCommand contains an uploaded file.
type UploadCommand struct {
	Name     string
	Filename string
	Data     []byte
	OwnerID  *string
}

// MaxBatchFiles bounds the files accepted by one batch upload.
const MaxBatchFiles = 10

// BatchResult reports a batch upload. Each file either creates a document
// or contributes an error; one failure does not abort the rest.
type BatchResult struct {
	Documents []Document   `json:"documents"`
	Errors    []BatchError `json:"errors,omitempty"`
}

// BatchError describes a file that could not be uploaded.
type BatchError struct {
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
}

// MergeCommand merges SourceIDs, in order, into one document.
type MergeCommand struct {
	SourceIDs  []uuid.UUID `json:"source_ids"`
	OutputName string      `json:"output_name,omitempty"`
	OwnerID    *string     `json:"-"`
}

// SplitCommand produces one document per range, in range order.
type SplitCommand struct {
	SourceID    uuid.UUID       `json:"-"`
	Ranges      []pdf.PageRange `json:"ranges"`
	OutputNames []string        `json:"output_names,omitempty"`
	OwnerID     *string         `json:"-"`
}

// InsertTextCommand draws Text on Page of SourceID.
// Nil position, size and colour fall back to the page's top-left margin,
// 12pt and black.
type InsertTextCommand struct {
	SourceID uuid.UUID  `json:"-"`
	Page     int        `json:"page"`
	Text     string     `json:"text"`
	X        *float64   `json:"x,omitempty"`
	Y        *float64   `json:"y,omitempty"`
	FontSize *float64   `json:"font_size,omitempty"`
	Color    *pdf.Color `json:"color,omitempty"`
	OwnerID  *string    `json:"-"`
}
