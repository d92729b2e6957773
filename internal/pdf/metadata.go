package pdf

import (
	"strings"
	"time"
)

// Metadata holds the structural and descriptive fields of a document.
// Missing text fields are empty; missing or unparseable dates resolve to the
// extraction time.
type Metadata struct {
	PageCount        int       `json:"page_count"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	Subject          string    `json:"subject"`
	Creator          string    `json:"creator"`
	Producer         string    `json:"producer"`
	CreationDate     time.Time `json:"creation_date"`
	ModificationDate time.Time `json:"modification_date"`
	Encrypted        bool      `json:"encrypted"`
}

// Extract reads metadata from a validated document. It never fails.
func Extract(doc *Document, now time.Time) Metadata {
	xref := doc.ctx.XRefTable

	return Metadata{
		PageCount:        doc.PageCount(),
		Title:            clean(xref.Title),
		Author:           clean(xref.Author),
		Subject:          clean(xref.Subject),
		Creator:          clean(xref.Creator),
		Producer:         clean(xref.Producer),
		CreationDate:     parseDate(xref.CreationDate, now),
		ModificationDate: parseDate(xref.ModDate, now),
		Encrypted:        doc.Encrypted(),
	}
}

var dateLayouts = []string{
	"20060102150405-0700",
	"20060102150405-07",
	"20060102150405Z",
	"20060102150405",
	"200601021504",
	"2006010215",
	"20060102",
	"200601",
	"2006",
}

// parseDate reads a PDF date string (D:YYYYMMDDHHmmSSOHH'mm').
func parseDate(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "D:")
	s = strings.ReplaceAll(s, "'", "")
	if i := strings.IndexByte(s, 'Z'); i >= 0 {
		s = s[:i+1]
	}
	if s == "" {
		return fallback
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return fallback
}

func clean(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
