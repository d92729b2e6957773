// Package pdf validates, inspects and transforms PDF documents.
//
// A Document is the parsed handle produced by Engine.Validate. It is read-only:
// every transform reads its bytes and produces a new Result, never altering
// the source.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	api.DisableConfigDir()
}

// Document is a validated, parsed PDF.
type Document struct {
	data  []byte
	ctx   *model.Context
	pages int
	dims  []types.Dim
}

// PageCount returns the number of enumerable pages.
func (d *Document) PageCount() int {
	return d.pages
}

// Bytes returns the raw document bytes. Callers must not modify the slice.
func (d *Document) Bytes() []byte {
	return d.data
}

// Size returns the document size in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.data))
}

// Encrypted reports whether the document carries an encryption dictionary.
func (d *Document) Encrypted() bool {
	return d.ctx.Encrypt != nil
}

// PageSize returns the width and height of page in points.
func (d *Document) PageSize(page int) (float64, float64, error) {
	if page < 1 || page > d.pages {
		return 0, 0, fmt.Errorf("%w: page %d out of range [1-%d]", ErrInvalidRequest, page, d.pages)
	}
	if page > len(d.dims) {
		return defaultWidth, defaultHeight, nil
	}
	dim := d.dims[page-1]
	return dim.Width, dim.Height, nil
}

func (d *Document) reader() *bytes.Reader {
	return bytes.NewReader(d.data)
}

// US Letter, used when a page carries no usable media box.
const (
	defaultWidth  = 612.0
	defaultHeight = 792.0
)

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}
