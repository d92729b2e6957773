package documents_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/JaimeStill/pdf-lab/internal/pdf/pdftest"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
	"github.com/google/uuid"
)

type fixture struct {
	sys  documents.System
	base string
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	base := t.TempDir()
	blobs, err := storage.NewFilesystem(base, testLogger())
	if err != nil {
		t.Fatalf("NewFilesystem() failed: %v", err)
	}

	sys := documents.New(
		documents.NewMemory(),
		artifacts.New(blobs, testLogger()),
		pdf.NewEngine(1<<20),
		testLogger(),
		documents.Options{
			MaxMergeSources:  5,
			TransformTimeout: time.Minute,
			Clock:            func() time.Time { return fixedNow },
		},
	)

	return &fixture{sys: sys, base: base}
}

func (f *fixture) upload(t *testing.T, label string, pages int) *documents.Document {
	t.Helper()
	doc, err := f.sys.Upload(context.Background(), documents.UploadCommand{
		Filename: label + ".pdf",
		Data:     pdftest.Generate(label, pages),
	})
	if err != nil {
		t.Fatalf("Upload(%s) failed: %v", label, err)
	}
	return doc
}

func (f *fixture) files(t *testing.T) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(f.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return count
}

func TestSystem_Upload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.upload(t, "A", 3)

	if doc.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", doc.PageCount)
	}
	if doc.Provenance != documents.ProvenanceOriginal {
		t.Errorf("Provenance = %q, want original", doc.Provenance)
	}
	if doc.Name != "A.pdf" {
		t.Errorf("Name = %q, want A.pdf", doc.Name)
	}
	if len(doc.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", doc.Sources)
	}
	if !doc.CreationDate.Equal(fixedNow) {
		t.Errorf("CreationDate = %v, want clock default %v", doc.CreationDate, fixedNow)
	}

	found, data, err := f.sys.Data(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Data() failed: %v", err)
	}
	if found.ID != doc.ID {
		t.Errorf("Data() id = %s, want %s", found.ID, doc.ID)
	}
	if artifacts.Checksum(data) != doc.Checksum {
		t.Error("stored bytes do not match recorded checksum")
	}
}

func TestSystem_UploadInvalid(t *testing.T) {
	valid := pdftest.Generate("A", 2)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, documents.ErrInvalidFile},
		{"not a pdf", []byte("hello, world"), documents.ErrInvalidFile},
		{"truncated", valid[:len(valid)/3], documents.ErrInvalidFile},
		{"too large", make([]byte, 2<<20), documents.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.sys.Upload(context.Background(), documents.UploadCommand{
				Filename: "bad.pdf",
				Data:     tt.data,
			})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Upload() error = %v, want %v", err, tt.want)
			}

			if n := f.files(t); n != 0 {
				t.Errorf("store holds %d files after rejected upload, want 0", n)
			}

			page, err := f.sys.List(context.Background(), pagination.PageRequest{}, documents.Filters{})
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if page.Total != 0 {
				t.Errorf("registry holds %d records, want 0", page.Total)
			}
		})
	}
}

func TestSystem_UploadBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.sys.UploadBatch(ctx, []documents.UploadCommand{
		{Filename: "one.pdf", Data: pdftest.Generate("B1", 1)},
		{Filename: "bad.pdf", Data: []byte("plain text")},
		{Filename: "two.pdf", Data: pdftest.Generate("B2", 2)},
	})
	if err != nil {
		t.Fatalf("UploadBatch() failed: %v", err)
	}

	if len(result.Documents) != 2 {
		t.Fatalf("Documents = %d, want 2", len(result.Documents))
	}
	if result.Documents[0].Filename != "one.pdf" || result.Documents[1].PageCount != 2 {
		t.Errorf("Documents = %+v, want one.pdf then a 2-page two.pdf", result.Documents)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %+v, want one", result.Errors)
	}
	if e := result.Errors[0]; e.Filename != "bad.pdf" || e.Kind != documents.KindValidation {
		t.Errorf("Errors[0] = %+v, want bad.pdf with kind %s", e, documents.KindValidation)
	}

	page, err := f.sys.List(ctx, pagination.PageRequest{}, documents.Filters{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
}

func TestSystem_UploadBatchRejects(t *testing.T) {
	f := newFixture(t)

	tooMany := make([]documents.UploadCommand, documents.MaxBatchFiles+1)
	for i := range tooMany {
		tooMany[i] = documents.UploadCommand{Filename: "f.pdf", Data: pdftest.Generate("X", 1)}
	}

	tests := []struct {
		name string
		cmds []documents.UploadCommand
	}{
		{"empty", nil},
		{"over limit", tooMany},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.sys.UploadBatch(context.Background(), tt.cmds); !errors.Is(err, documents.ErrInvalidRequest) {
				t.Errorf("UploadBatch() error = %v, want ErrInvalidRequest", err)
			}
			if n := f.files(t); n != 0 {
				t.Errorf("store holds %d files, want 0", n)
			}
		})
	}
}

func TestSystem_Merge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "A", 2)
	b := f.upload(t, "B", 1)
	c := f.upload(t, "C", 3)

	merged, err := f.sys.Merge(ctx, documents.MergeCommand{
		SourceIDs: []uuid.UUID{a.ID, b.ID, c.ID},
	})
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}

	if merged.PageCount != 6 {
		t.Errorf("PageCount = %d, want 6", merged.PageCount)
	}
	if merged.Provenance != documents.ProvenanceMerged {
		t.Errorf("Provenance = %q, want merged", merged.Provenance)
	}
	if len(merged.Sources) != 3 || merged.Sources[0] != a.ID || merged.Sources[2] != c.ID {
		t.Errorf("Sources = %v, want [%s %s %s]", merged.Sources, a.ID, b.ID, c.ID)
	}
	if want := "merged_1773480600.pdf"; merged.Name != want {
		t.Errorf("Name = %q, want %q", merged.Name, want)
	}

	md, err := f.sys.Metadata(ctx, merged.ID)
	if err != nil {
		t.Fatalf("Metadata() failed: %v", err)
	}
	if md.PageCount != 6 {
		t.Errorf("Metadata().PageCount = %d, want 6", md.PageCount)
	}
}

func TestSystem_MergeRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "A", 1)
	before := f.files(t)

	tests := []struct {
		name string
		ids  []uuid.UUID
		want error
	}{
		{"single source", []uuid.UUID{a.ID}, documents.ErrInvalidRequest},
		{"unknown source", []uuid.UUID{a.ID, uuid.New()}, documents.ErrNotFound},
		{"too many sources", []uuid.UUID{a.ID, a.ID, a.ID, a.ID, a.ID, a.ID}, documents.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sys.Merge(ctx, documents.MergeCommand{SourceIDs: tt.ids})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Merge() error = %v, want %v", err, tt.want)
			}
			if after := f.files(t); after != before {
				t.Errorf("store files = %d, want %d", after, before)
			}
		})
	}
}

func TestSystem_DeleteSourceKeepsDerived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "A", 2)
	b := f.upload(t, "B", 2)

	merged, err := f.sys.Merge(ctx, documents.MergeCommand{SourceIDs: []uuid.UUID{a.ID, b.ID}})
	if err != nil {
		t.Fatalf("Merge() failed: %v", err)
	}

	if err := f.sys.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := f.sys.Find(ctx, a.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Find(deleted) error = %v, want ErrNotFound", err)
	}
	if err := f.sys.Delete(ctx, a.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	doc, data, err := f.sys.Data(ctx, merged.ID)
	if err != nil {
		t.Fatalf("Data(merged) failed: %v", err)
	}
	if doc.PageCount != 4 || artifacts.Checksum(data) != merged.Checksum {
		t.Error("merged document changed after source deletion")
	}

	if _, err := f.sys.Merge(ctx, documents.MergeCommand{SourceIDs: []uuid.UUID{a.ID, b.ID}}); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Merge(deleted source) error = %v, want ErrNotFound", err)
	}
}

func TestSystem_Purge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "A", 1)
	if err := f.sys.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := f.sys.Purge(ctx, a.ID); err != nil {
		t.Fatalf("Purge(soft deleted) failed: %v", err)
	}
	if err := f.sys.Purge(ctx, a.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("second Purge() error = %v, want ErrNotFound", err)
	}
	if n := f.files(t); n != 0 {
		t.Errorf("store holds %d files after purge, want 0", n)
	}
}

func TestSystem_Split(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := f.upload(t, "S", 3)

	docs, err := f.sys.Split(ctx, documents.SplitCommand{
		SourceID:    src.ID,
		Ranges:      []pdf.PageRange{{Start: 1, End: 2}, {Start: 3, End: 3}},
		OutputNames: []string{"front"},
	})
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2", len(docs))
	}
	if docs[0].PageCount != 2 || docs[1].PageCount != 1 {
		t.Errorf("page counts = [%d %d], want [2 1]", docs[0].PageCount, docs[1].PageCount)
	}
	if docs[0].Name != "front" {
		t.Errorf("docs[0].Name = %q, want front", docs[0].Name)
	}
	if docs[1].Name != "split_2_S.pdf" {
		t.Errorf("docs[1].Name = %q, want split_2_S.pdf", docs[1].Name)
	}
	for _, d := range docs {
		if d.Provenance != documents.ProvenanceSplit || len(d.Sources) != 1 || d.Sources[0] != src.ID {
			t.Errorf("derived document %s has provenance %q sources %v", d.ID, d.Provenance, d.Sources)
		}
	}
}

func TestSystem_SplitRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := f.upload(t, "S", 3)
	before := f.files(t)

	tests := []struct {
		name string
		cmd  documents.SplitCommand
		want error
	}{
		{
			"reversed range",
			documents.SplitCommand{Ranges: []pdf.PageRange{{Start: 2, End: 1}}},
			pdf.ErrInvalidRequest,
		},
		{
			"beyond last page",
			documents.SplitCommand{Ranges: []pdf.PageRange{{Start: 1, End: 1}, {Start: 2, End: 4}}},
			pdf.ErrInvalidRequest,
		},
		{
			"no ranges",
			documents.SplitCommand{},
			documents.ErrInvalidRequest,
		},
		{
			"too many names",
			documents.SplitCommand{Ranges: []pdf.PageRange{{Start: 1, End: 1}}, OutputNames: []string{"a", "b"}},
			documents.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.SourceID = src.ID
			_, err := f.sys.Split(ctx, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Split() error = %v, want %v", err, tt.want)
			}
			if after := f.files(t); after != before {
				t.Errorf("store files = %d, want %d", after, before)
			}
		})
	}
}

func TestSystem_InsertText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	src := f.upload(t, "T", 2)

	edited, err := f.sys.InsertText(ctx, documents.InsertTextCommand{
		SourceID: src.ID,
		Page:     1,
		Text:     "APPROVED",
	})
	if err != nil {
		t.Fatalf("InsertText() failed: %v", err)
	}

	if edited.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", edited.PageCount)
	}
	if edited.Name != "edited_T.pdf" {
		t.Errorf("Name = %q, want edited_T.pdf", edited.Name)
	}
	if edited.Checksum == src.Checksum {
		t.Error("edited document has the source checksum")
	}

	_, data, err := f.sys.Data(ctx, src.ID)
	if err != nil {
		t.Fatalf("Data(source) failed: %v", err)
	}
	if artifacts.Checksum(data) != src.Checksum {
		t.Error("source bytes changed by text insertion")
	}

	_, err = f.sys.InsertText(ctx, documents.InsertTextCommand{SourceID: src.ID, Page: 3, Text: "x"})
	if !errors.Is(err, pdf.ErrInvalidRequest) {
		t.Errorf("InsertText(page 3) error = %v, want ErrInvalidRequest", err)
	}
}

func TestSystem_IntegrityFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.upload(t, "I", 1)

	path := filepath.Join(f.base, filepath.FromSlash(doc.StorageKey))
	if err := os.WriteFile(path, pdftest.Generate("X", 1), 0o644); err != nil {
		t.Fatalf("overwrite artifact: %v", err)
	}

	_, err := f.sys.Metadata(ctx, doc.ID)
	if !errors.Is(err, documents.ErrIntegrity) {
		t.Fatalf("Metadata() error = %v, want ErrIntegrity", err)
	}
	if documents.ErrorKind(err) != documents.KindIntegrity {
		t.Errorf("ErrorKind() = %q, want %q", documents.ErrorKind(err), documents.KindIntegrity)
	}
}

func TestSystem_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.upload(t, "alpha", 1)
	f.upload(t, "beta", 1)
	f.upload(t, "gamma", 1)

	if err := f.sys.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	page, err := f.sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 1}, documents.Filters{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	if len(page.Data) != 1 {
		t.Errorf("len(Data) = %d, want 1", len(page.Data))
	}

	name := "gam"
	page, err = f.sys.List(ctx, pagination.PageRequest{}, documents.Filters{Name: &name})
	if err != nil {
		t.Fatalf("List(name) failed: %v", err)
	}
	if page.Total != 1 || page.Data[0].Name != "gamma.pdf" {
		t.Errorf("List(name=gam) = %+v, want gamma.pdf", page.Data)
	}
}

func TestSystem_CancelledTransform(t *testing.T) {
	f := newFixture(t)

	a := f.upload(t, "A", 1)
	b := f.upload(t, "B", 1)
	before := f.files(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.sys.Merge(ctx, documents.MergeCommand{SourceIDs: []uuid.UUID{a.ID, b.ID}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Merge() error = %v, want context.Canceled", err)
	}
	if after := f.files(t); after != before {
		t.Errorf("store files = %d, want %d", after, before)
	}
}
