package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const pdfHeader = "%PDF-"

// Result is the output of a transform. PageCount is taken from re-validating
// the produced bytes, never from the inputs.
type Result struct {
	Data      []byte
	PageCount int
	Document  *Document
}

// TextInsertion describes a single text draw on one page.
// X and Y are in points from the bottom-left corner of the page.
type TextInsertion struct {
	Page     int
	Text     string
	X        float64
	Y        float64
	FontSize float64
	Color    Color
}

func (t TextInsertion) validate(pageCount int) error {
	if t.Page < 1 || t.Page > pageCount {
		return fmt.Errorf("%w: page %d out of range [1-%d]", ErrInvalidRequest, t.Page, pageCount)
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if !finite(t.FontSize) || t.FontSize <= 0 {
		return fmt.Errorf("%w: font size must be positive", ErrInvalidRequest)
	}
	if !finite(t.X) || !finite(t.Y) {
		return fmt.Errorf("%w: position must be finite", ErrInvalidRequest)
	}
	return t.Color.Validate()
}

// Engine validates and transforms documents.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	maxSize int64
}

// NewEngine creates an Engine that rejects inputs larger than maxSize bytes.
// A non-positive maxSize disables the limit.
func NewEngine(maxSize int64) *Engine {
	return &Engine{maxSize: maxSize}
}

// MaxSize returns the input size limit in bytes.
func (e *Engine) MaxSize() int64 {
	return e.maxSize
}

// Validate parses data far enough to enumerate its pages.
// Any failure, including encryption that needs a user password, is ErrValidation.
func (e *Engine) Validate(data []byte) (*Document, error) {
	if e.maxSize > 0 && int64(len(data)) > e.maxSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrValidation, len(data), e.maxSize)
	}
	return parse(data)
}

// Open parses previously stored bytes without the upload size limit.
func (e *Engine) Open(data []byte) (*Document, error) {
	return parse(data)
}

func parse(data []byte) (*Document, error) {
	idx := bytes.Index(data, []byte(pdfHeader))
	if idx < 0 || idx > 1024 {
		return nil, fmt.Errorf("%w: missing %s header", ErrValidation, pdfHeader)
	}

	conf := newConfiguration()

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrValidation)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		dims = nil
	}

	return &Document{
		data:  data,
		ctx:   ctx,
		pages: ctx.PageCount,
		dims:  dims,
	}, nil
}

// Merge concatenates docs in order, each document's pages in their own order.
func (e *Engine) Merge(ctx context.Context, docs []*Document) (*Result, error) {
	if len(docs) < 2 {
		return nil, fmt.Errorf("%w: merge requires at least 2 documents, got %d", ErrInvalidRequest, len(docs))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		readers[i] = doc.reader()
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	return e.result(ctx, buf.Bytes())
}

// Split produces one document per range, in range order.
// Every range is checked before any output is produced.
func (e *Engine) Split(ctx context.Context, doc *Document, ranges []PageRange) ([]*Result, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: at least one page range is required", ErrInvalidRequest)
	}
	for _, r := range ranges {
		if err := r.Validate(doc.PageCount()); err != nil {
			return nil, err
		}
	}

	results := make([]*Result, 0, len(ranges))
	for _, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := api.Trim(doc.reader(), &buf, []string{r.String()}, newConfiguration()); err != nil {
			return nil, fmt.Errorf("split %s: %w", r, err)
		}

		res, err := e.result(ctx, buf.Bytes())
		if err != nil {
			return nil, err
		}
		if res.PageCount != r.Len() {
			return nil, fmt.Errorf("split %s: produced %d pages, want %d", r, res.PageCount, r.Len())
		}
		results = append(results, res)
	}

	return results, nil
}

// InsertText draws text on one page and returns the whole document as a new output.
func (e *Engine) InsertText(ctx context.Context, doc *Document, ins TextInsertion) (*Result, error) {
	if err := ins.validate(doc.PageCount()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	desc := strings.Join([]string{
		"fontname:Helvetica",
		"points:" + formatFloat(ins.FontSize),
		"fillcolor:" + ins.Color.Hex(),
		"position:bl",
		"offset:" + formatFloat(ins.X) + " " + formatFloat(ins.Y),
		"scalefactor:1 abs",
		"rotation:0",
		"opacity:1",
	}, ", ")

	wm, err := api.TextWatermark(ins.Text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var buf bytes.Buffer
	pages := []string{strconv.Itoa(ins.Page)}
	if err := api.AddWatermarks(doc.reader(), &buf, pages, wm, newConfiguration()); err != nil {
		return nil, fmt.Errorf("insert text: %w", err)
	}

	return e.result(ctx, buf.Bytes())
}

func (e *Engine) result(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	return &Result{
		Data:      data,
		PageCount: out.PageCount(),
		Document:  out,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
