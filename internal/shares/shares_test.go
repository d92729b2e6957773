package shares_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/documents"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
	"github.com/JaimeStill/pdf-lab/internal/pdf/pdftest"
	"github.com/JaimeStill/pdf-lab/internal/shares"
	"github.com/JaimeStill/pdf-lab/pkg/identity"
	"github.com/JaimeStill/pdf-lab/pkg/openapi"
	"github.com/JaimeStill/pdf-lab/pkg/pagination"
	"github.com/JaimeStill/pdf-lab/pkg/routes"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
	"github.com/google/uuid"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	docs   documents.System
	ledger shares.System
	clock  *clock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, maxTTL time.Duration) *fixture {
	t.Helper()

	blobs, err := storage.NewFilesystem(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFilesystem() failed: %v", err)
	}

	clk := &clock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	docs := documents.New(
		documents.NewMemory(),
		artifacts.New(blobs, testLogger()),
		pdf.NewEngine(1<<20),
		testLogger(),
		documents.Options{Clock: clk.Now},
	)

	ledger := shares.New(shares.NewMemory(), docs, testLogger(), shares.Options{
		MaxTTL: maxTTL,
		Clock:  clk.Now,
	})

	return &fixture{docs: docs, ledger: ledger, clock: clk}
}

func (f *fixture) document(t *testing.T) *documents.Document {
	t.Helper()
	doc, err := f.docs.Upload(context.Background(), documents.UploadCommand{
		Filename: "shared.pdf",
		Data:     pdftest.Generate("S", 2),
	})
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	return doc
}

func ptr[T any](v T) *T { return &v }

func TestLink_State(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		link shares.Link
		want shares.State
	}{
		{"unbounded", shares.Link{Active: true}, shares.StateActive},
		{"at expiry", shares.Link{Active: true, ExpiresAt: ptr(now)}, shares.StateActive},
		{"past expiry", shares.Link{Active: true, ExpiresAt: ptr(now.Add(-time.Second))}, shares.StateExpired},
		{"under limit", shares.Link{Active: true, MaxDownloads: ptr(2), DownloadCount: 1}, shares.StateActive},
		{"at limit", shares.Link{Active: true, MaxDownloads: ptr(2), DownloadCount: 2}, shares.StateExhausted},
		{
			"deactivated wins",
			shares.Link{Active: false, ExpiresAt: ptr(now.Add(-time.Hour)), MaxDownloads: ptr(1), DownloadCount: 1},
			shares.StateDeactivated,
		},
		{
			"expired before exhausted",
			shares.Link{Active: true, ExpiresAt: ptr(now.Add(-time.Hour)), MaxDownloads: ptr(1), DownloadCount: 1},
			shares.StateExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.State(now); got != tt.want {
				t.Errorf("State() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSystem_Issue(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	link, err := f.ledger.Issue(ctx, shares.IssueCommand{
		DocumentID:   doc.ID,
		MaxDownloads: ptr(3),
		OwnerID:      ptr("owner"),
	})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if !link.Active || link.DownloadCount != 0 || link.Token == "" {
		t.Errorf("issued link = %+v, want active with zero count and a token", link)
	}
	if link.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", link.ExpiresAt)
	}

	other, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("second Issue() failed: %v", err)
	}
	if other.Token == link.Token {
		t.Error("tokens are not unique")
	}
}

func TestSystem_IssueRejects(t *testing.T) {
	f := newFixture(t, 24*time.Hour)
	ctx := context.Background()
	doc := f.document(t)

	deleted := f.document(t)
	if err := f.docs.Delete(ctx, deleted.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	tests := []struct {
		name string
		cmd  shares.IssueCommand
		want error
	}{
		{"unknown document", shares.IssueCommand{DocumentID: uuid.New()}, shares.ErrDocumentNotFound},
		{"deleted document", shares.IssueCommand{DocumentID: deleted.ID}, shares.ErrDocumentNotFound},
		{"zero limit", shares.IssueCommand{DocumentID: doc.ID, MaxDownloads: ptr(0)}, shares.ErrInvalidRequest},
		{"bad ttl", shares.IssueCommand{DocumentID: doc.ID, TTL: "soon"}, shares.ErrInvalidRequest},
		{"beyond max ttl", shares.IssueCommand{DocumentID: doc.ID, TTL: "48h"}, shares.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.ledger.Issue(ctx, tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("Issue() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSystem_IssueDefaultsToMaxTTL(t *testing.T) {
	f := newFixture(t, time.Hour)
	doc := f.document(t)

	link, err := f.ledger.Issue(context.Background(), shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	want := f.clock.Now().Add(time.Hour)
	if link.ExpiresAt == nil || !link.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", link.ExpiresAt, want)
	}
}

func TestSystem_RedeemLimit(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	link, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, MaxDownloads: ptr(2)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	for i := 1; i <= 2; i++ {
		r, data, err := f.ledger.Redeem(ctx, link.Token)
		if err != nil {
			t.Fatalf("Redeem() #%d failed: %v", i, err)
		}
		if r.Link.DownloadCount != i {
			t.Errorf("DownloadCount = %d, want %d", r.Link.DownloadCount, i)
		}
		if artifacts.Checksum(data) != doc.Checksum {
			t.Error("redeemed bytes do not match the document")
		}
	}

	if _, _, err := f.ledger.Redeem(ctx, link.Token); !errors.Is(err, shares.ErrLimitReached) {
		t.Errorf("Redeem() over limit error = %v, want ErrLimitReached", err)
	}
	if _, err := f.ledger.Inspect(ctx, link.Token); !errors.Is(err, shares.ErrLimitReached) {
		t.Errorf("Inspect() over limit error = %v, want ErrLimitReached", err)
	}
}

func TestSystem_ConcurrentRedeemSingleSlot(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	link, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, MaxDownloads: ptr(1)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	const callers = 16
	var (
		successes atomic.Int32
		limited   atomic.Int32
		wg        sync.WaitGroup
		start     = make(chan struct{})
	)

	for range callers {
		wg.Go(func() {
			<-start
			_, _, err := f.ledger.Redeem(ctx, link.Token)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, shares.ErrLimitReached):
				limited.Add(1)
			default:
				t.Errorf("Redeem() unexpected error: %v", err)
			}
		})
	}

	close(start)
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("successes = %d, want exactly 1", successes.Load())
	}
	if limited.Load() != callers-1 {
		t.Errorf("limit reached = %d, want %d", limited.Load(), callers-1)
	}
}

func TestSystem_RedeemExpired(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	past := f.clock.Now().Add(-time.Second)
	link, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, ExpiresAt: &past, MaxDownloads: ptr(5)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, _, err := f.ledger.Redeem(ctx, link.Token); !errors.Is(err, shares.ErrExpired) {
		t.Errorf("Redeem() error = %v, want ErrExpired", err)
	}

	future := f.clock.Now().Add(time.Minute)
	later, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, ExpiresAt: &future})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if _, _, err := f.ledger.Redeem(ctx, later.Token); err != nil {
		t.Fatalf("Redeem() before expiry failed: %v", err)
	}

	f.clock.Advance(2 * time.Minute)
	if _, _, err := f.ledger.Redeem(ctx, later.Token); !errors.Is(err, shares.ErrExpired) {
		t.Errorf("Redeem() after expiry error = %v, want ErrExpired", err)
	}
}

func TestSystem_RedeemUnknownToken(t *testing.T) {
	f := newFixture(t, 0)

	if _, _, err := f.ledger.Redeem(context.Background(), "missing"); !errors.Is(err, shares.ErrNotFound) {
		t.Errorf("Redeem() error = %v, want ErrNotFound", err)
	}
}

func TestSystem_RedeemDeletedDocument(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	link, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if err := f.docs.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, _, err := f.ledger.Redeem(ctx, link.Token); !errors.Is(err, shares.ErrDocumentNotFound) {
		t.Errorf("Redeem() error = %v, want ErrDocumentNotFound", err)
	}
}

type flakyDocuments struct {
	documents.System
	failures atomic.Int32
}

func (d *flakyDocuments) Data(ctx context.Context, id uuid.UUID) (*documents.Document, []byte, error) {
	if d.failures.Add(-1) >= 0 {
		return nil, nil, errors.New("transient storage failure")
	}
	return d.System.Data(ctx, id)
}

func TestSystem_RedeemReadFailureKeepsDownload(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	docs := &flakyDocuments{System: f.docs}
	docs.failures.Store(1)
	ledger := shares.New(shares.NewMemory(), docs, testLogger(), shares.Options{Clock: f.clock.Now})

	link, err := ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, MaxDownloads: ptr(1)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, _, err := ledger.Redeem(ctx, link.Token); err == nil {
		t.Fatal("Redeem() should fail while the document cannot be read")
	}

	inspected, err := ledger.Inspect(ctx, link.Token)
	if err != nil {
		t.Fatalf("Inspect() after failed read: %v", err)
	}
	if inspected.Link.DownloadCount != 0 {
		t.Errorf("DownloadCount = %d after failed read, want 0", inspected.Link.DownloadCount)
	}

	r, data, err := ledger.Redeem(ctx, link.Token)
	if err != nil {
		t.Fatalf("Redeem() retry failed: %v", err)
	}
	if r.Link.DownloadCount != 1 || artifacts.Checksum(data) != doc.Checksum {
		t.Errorf("retry = count %d, checksum match %v; want 1, true",
			r.Link.DownloadCount, artifacts.Checksum(data) == doc.Checksum)
	}
}

func TestSystem_ViewOnly(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	link, err := f.ledger.Issue(ctx, shares.IssueCommand{
		DocumentID:    doc.ID,
		MaxDownloads:  ptr(2),
		AllowDownload: ptr(false),
	})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if link.AllowDownload {
		t.Error("AllowDownload = true, want false")
	}

	if _, err := f.ledger.Inspect(ctx, link.Token); err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}

	_, _, err = f.ledger.Redeem(ctx, link.Token)
	if !errors.Is(err, shares.ErrViewOnly) {
		t.Fatalf("Redeem() error = %v, want ErrViewOnly", err)
	}
	if got := shares.MapHTTPStatus(err); got != http.StatusForbidden {
		t.Errorf("MapHTTPStatus() = %d, want 403", got)
	}

	r, err := f.ledger.Inspect(ctx, link.Token)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if r.Link.DownloadCount != 0 {
		t.Errorf("DownloadCount = %d, want 0", r.Link.DownloadCount)
	}

	def, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if !def.AllowDownload {
		t.Error("AllowDownload should default to true")
	}
}

func TestMemory_RedeemViewOnly(t *testing.T) {
	repo := shares.NewMemory()
	ctx := context.Background()

	link := &shares.Link{ID: uuid.New(), Token: "view", DocumentID: uuid.New(), Active: true}
	if err := repo.Create(ctx, link); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err := repo.Redeem(ctx, "view", time.Now()); !errors.Is(err, shares.ErrViewOnly) {
		t.Errorf("Redeem() error = %v, want ErrViewOnly", err)
	}
}

func TestSystem_Remaining(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	limited, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, MaxDownloads: ptr(3)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	r, err := f.ledger.Inspect(ctx, limited.Token)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if r.Remaining == nil || *r.Remaining != 3 {
		t.Errorf("Inspect() Remaining = %v, want 3", r.Remaining)
	}

	r, _, err = f.ledger.Redeem(ctx, limited.Token)
	if err != nil {
		t.Fatalf("Redeem() failed: %v", err)
	}
	if r.Remaining == nil || *r.Remaining != 2 {
		t.Errorf("Redeem() Remaining = %v, want 2", r.Remaining)
	}

	unlimited, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	r, err = f.ledger.Inspect(ctx, unlimited.Token)
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if r.Remaining != nil {
		t.Errorf("Remaining = %d, want nil for unlimited link", *r.Remaining)
	}
}

func TestSystem_Deactivate(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	owned, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, OwnerID: ptr("alice")})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if err := f.ledger.Deactivate(ctx, owned.Token, ptr("mallory")); !errors.Is(err, shares.ErrForbidden) {
		t.Errorf("Deactivate(other) error = %v, want ErrForbidden", err)
	}
	if err := f.ledger.Deactivate(ctx, owned.Token, nil); !errors.Is(err, shares.ErrForbidden) {
		t.Errorf("Deactivate(anonymous) error = %v, want ErrForbidden", err)
	}
	if _, _, err := f.ledger.Redeem(ctx, owned.Token); err != nil {
		t.Fatalf("Redeem() after refused deactivation failed: %v", err)
	}

	for i := range 2 {
		if err := f.ledger.Deactivate(ctx, owned.Token, ptr("alice")); err != nil {
			t.Fatalf("Deactivate() #%d failed: %v", i+1, err)
		}
	}

	if _, _, err := f.ledger.Redeem(ctx, owned.Token); !errors.Is(err, shares.ErrDeactivated) {
		t.Errorf("Redeem() error = %v, want ErrDeactivated", err)
	}

	anon, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if err := f.ledger.Deactivate(ctx, anon.Token, nil); err != nil {
		t.Errorf("Deactivate(ownerless) failed: %v", err)
	}

	if err := f.ledger.Deactivate(ctx, "missing", ptr("alice")); !errors.Is(err, shares.ErrNotFound) {
		t.Errorf("Deactivate(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSystem_List(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	doc := f.document(t)

	for _, owner := range []string{"alice", "alice", "bob"} {
		if _, err := f.ledger.Issue(ctx, shares.IssueCommand{DocumentID: doc.ID, OwnerID: ptr(owner)}); err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
	}

	page, err := f.ledger.List(ctx, ptr("alice"), pagination.PageRequest{}, shares.Filters{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}

	if _, err := f.ledger.List(ctx, nil, pagination.PageRequest{}, shares.Filters{}); !errors.Is(err, shares.ErrForbidden) {
		t.Errorf("List(anonymous) error = %v, want ErrForbidden", err)
	}
}

func TestHandler(t *testing.T) {
	f := newFixture(t, 0)
	doc := f.document(t)

	h := shares.NewHandler(f.ledger, testLogger(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, "http://localhost:8080/api")
	mux := http.NewServeMux()
	routes.Register(mux, "/api", openapi.NewSpec("test", "0.0.0"), h.Routes())

	body := strings.NewReader(`{"document_id":"` + doc.ID.String() + `","max_downloads":1}`)
	req := httptest.NewRequest(http.MethodPost, "/shares", body)
	req = req.WithContext(identity.WithOwner(req.Context(), "alice"))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("issue status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"url":"http://localhost:8080/api/shares/`) {
		t.Errorf("issue body missing download url: %s", w.Body.String())
	}

	page, err := f.ledger.List(context.Background(), ptr("alice"), pagination.PageRequest{}, shares.Filters{})
	if err != nil || page.Total != 1 {
		t.Fatalf("List() = %v, %v; want one link", page, err)
	}
	token := page.Data[0].Token

	view, err := f.ledger.Issue(context.Background(), shares.IssueCommand{DocumentID: doc.ID, AllowDownload: ptr(false)})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	steps := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"inspect", http.MethodGet, "/shares/" + token, http.StatusOK},
		{"download", http.MethodGet, "/shares/" + token + "/download", http.StatusOK},
		{"exhausted", http.MethodGet, "/shares/" + token + "/download", http.StatusGone},
		{"inspect exhausted", http.MethodGet, "/shares/" + token, http.StatusGone},
		{"deactivate anonymous", http.MethodDelete, "/shares/" + token, http.StatusForbidden},
		{"unknown", http.MethodGet, "/shares/missing/download", http.StatusNotFound},
		{"list anonymous", http.MethodGet, "/shares", http.StatusForbidden},
		{"inspect view-only", http.MethodGet, "/shares/" + view.Token, http.StatusOK},
		{"download view-only", http.MethodGet, "/shares/" + view.Token + "/download", http.StatusForbidden},
	}

	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(s.method, s.target, nil))
			if w.Code != s.status {
				t.Errorf("%s %s status = %d, want %d: %s", s.method, s.target, w.Code, s.status, w.Body.String())
			}
		})
	}
}
