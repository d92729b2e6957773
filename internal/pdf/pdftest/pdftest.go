// Package pdftest builds small, well-formed PDF documents for tests.
// Each page carries the text "Page-<label>-<n>" so content can be traced
// through merges and splits.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Info holds optional document information dictionary entries.
// Empty fields are omitted from the output.
type Info struct {
	Title        string
	Author       string
	Subject      string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// Options configures a generated document.
type Options struct {
	Label  string
	Pages  int
	Width  float64
	Height float64
	Info   *Info
}

// Generate returns a US Letter document with the given number of pages.
func Generate(label string, pages int) []byte {
	return Build(Options{Label: label, Pages: pages})
}

// PageText returns the text drawn on page n of a document generated with label.
func PageText(label string, n int) string {
	return fmt.Sprintf("Page-%s-%d", label, n)
}

// Build returns a document described by opts.
func Build(opts Options) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.Width == 0 {
		opts.Width = 612
	}
	if opts.Height == 0 {
		opts.Height = 792
	}

	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 pages, 3 font, then a page/content pair per page, then info.
	kids := make([]string, opts.Pages)
	for i := range opts.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	w.object(1, "<< /Type /Catalog /Pages 2 0 R >>")
	w.object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), opts.Pages))
	w.object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i := range opts.Pages {
		pageID := 4 + 2*i
		contentID := pageID + 1

		w.object(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			num(opts.Width), num(opts.Height), contentID,
		))

		content := fmt.Sprintf("BT /F1 24 Tf 72 %s Td (%s) Tj ET", num(opts.Height-72), PageText(opts.Label, i+1))
		w.object(contentID, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	size := 4 + 2*opts.Pages
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R >>", size)

	if opts.Info != nil {
		infoID := size
		size++
		w.object(infoID, infoDict(opts.Info))
		trailer = fmt.Sprintf("<< /Size %d /Root 1 0 R /Info %d 0 R >>", size, infoID)
	}

	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", size)
	w.buf.WriteString("0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[id])
	}
	fmt.Fprintf(&w.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)

	return w.buf.Bytes()
}

type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *writer) object(id int, body string) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[id] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", id, body)
}

func infoDict(info *Info) string {
	var b strings.Builder
	b.WriteString("<<")
	for _, e := range []struct{ key, value string }{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
		{"CreationDate", info.CreationDate},
		{"ModDate", info.ModDate},
	} {
		if e.value == "" {
			continue
		}
		fmt.Fprintf(&b, " /%s (%s)", e.key, escape(e.value))
	}
	b.WriteString(" >>")
	return b.String()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
