package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/pdf-lab/pkg/lifecycle"
	"github.com/JaimeStill/pdf-lab/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFilesystem(t *testing.T) (storage.System, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFilesystem(dir, discard())
	if err != nil {
		t.Fatalf("NewFilesystem() failed: %v", err)
	}
	return fs, dir
}

func TestFilesystem_StoreRetrieve(t *testing.T) {
	fs, dir := newFilesystem(t)
	ctx := context.Background()

	data := []byte("%PDF-1.7 payload")
	if err := fs.Store(ctx, "blobs/ab/one.pdf", data); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	got, err := fs.Retrieve(ctx, "blobs/ab/one.pdf")
	if err != nil {
		t.Fatalf("Retrieve() failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Retrieve() = %q, want %q", got, data)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "blobs", "ab"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files left behind)", len(entries))
	}
}

func TestFilesystem_StoreRefusesOverwrite(t *testing.T) {
	fs, _ := newFilesystem(t)
	ctx := context.Background()

	if err := fs.Store(ctx, "k.pdf", []byte("first")); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	err := fs.Store(ctx, "k.pdf", []byte("second"))
	if !errors.Is(err, storage.ErrExists) {
		t.Fatalf("Store() second write error = %v, want ErrExists", err)
	}

	got, _ := fs.Retrieve(ctx, "k.pdf")
	if string(got) != "first" {
		t.Errorf("Retrieve() = %q, want %q", got, "first")
	}
}

func TestFilesystem_ConcurrentStoreSingleWinner(t *testing.T) {
	fs, _ := newFilesystem(t)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if err := fs.Store(ctx, "race.pdf", []byte("x")); err == nil {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("successful stores = %d, want 1", wins.Load())
	}
}

func TestFilesystem_Delete(t *testing.T) {
	fs, dir := newFilesystem(t)
	ctx := context.Background()

	if err := fs.Store(ctx, "a/b/c.pdf", []byte("x")); err != nil {
		t.Fatal(err)
	}

	if err := fs.Delete(ctx, "a/b/c.pdf"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	exists, err := fs.Exists(ctx, "a/b/c.pdf")
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v; want false, nil", exists, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "a")); !os.IsNotExist(err) {
		t.Error("empty parent directories should be pruned")
	}

	if err := fs.Delete(ctx, "a/b/c.pdf"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Delete() missing key error = %v, want ErrNotFound", err)
	}
}

func TestFilesystem_RetrieveMissing(t *testing.T) {
	fs, _ := newFilesystem(t)

	_, err := fs.Retrieve(context.Background(), "missing.pdf")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Retrieve() error = %v, want ErrNotFound", err)
	}
}

func TestFilesystem_InvalidKeys(t *testing.T) {
	fs, _ := newFilesystem(t)
	ctx := context.Background()

	keys := []string{"", "../escape.pdf", "a/../../escape.pdf", "/abs.pdf"}
	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			if err := fs.Store(ctx, key, []byte("x")); !errors.Is(err, storage.ErrInvalidKey) {
				t.Errorf("Store(%q) error = %v, want ErrInvalidKey", key, err)
			}
		})
	}
}

func TestFilesystem_Start(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "blobs")
	fs, err := storage.NewFilesystem(base, discard())
	if err != nil {
		t.Fatal(err)
	}

	lc := lifecycle.New()
	if err := fs.Start(lc); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	lc.WaitForStartup()

	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		t.Errorf("base path not created: %v", err)
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestConfig_Finalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &storage.Config{}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize() failed: %v", err)
		}
		if cfg.Backend != storage.BackendFilesystem {
			t.Errorf("Backend = %q, want filesystem", cfg.Backend)
		}
		if cfg.BasePath == "" {
			t.Error("BasePath should default")
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		cfg := &storage.Config{Backend: storage.BackendS3}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize() should fail without a bucket")
		}
	})

	t.Run("s3 requires paired credentials", func(t *testing.T) {
		cfg := &storage.Config{Backend: storage.BackendS3, S3: storage.S3Config{Bucket: "b", AccessKey: "k"}}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize() should fail with access key only")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &storage.Config{Backend: "tape"}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("Finalize() should reject unknown backend")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_BACKEND", "s3")
		t.Setenv("TEST_STORAGE_BUCKET", "docs")
		t.Setenv("TEST_STORAGE_PATH_STYLE", "true")

		cfg := &storage.Config{}
		env := &storage.Env{
			Backend:        "TEST_STORAGE_BACKEND",
			S3Bucket:       "TEST_STORAGE_BUCKET",
			S3UsePathStyle: "TEST_STORAGE_PATH_STYLE",
		}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("Finalize() failed: %v", err)
		}
		if cfg.Backend != storage.BackendS3 || cfg.S3.Bucket != "docs" || !cfg.S3.UsePathStyle {
			t.Errorf("env not applied: %+v", cfg)
		}
	})
}

func TestConfig_Merge(t *testing.T) {
	base := &storage.Config{Backend: "filesystem", BasePath: "/a"}
	base.Merge(&storage.Config{BasePath: "/b", S3: storage.S3Config{Bucket: "x"}})

	if base.Backend != "filesystem" {
		t.Errorf("Backend = %q, want filesystem", base.Backend)
	}
	if base.BasePath != "/b" {
		t.Errorf("BasePath = %q, want /b", base.BasePath)
	}
	if base.S3.Bucket != "x" {
		t.Errorf("S3.Bucket = %q, want x", base.S3.Bucket)
	}
}
