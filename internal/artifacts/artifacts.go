// Package artifacts stores immutable document bytes behind opaque pointers.
// A pointer is only returned once its bytes are fully published, and a
// published key is never overwritten.
package artifacts

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/pdf-lab/pkg/storage"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

var (
	ErrNotFound = errors.New("artifact not found")
	ErrStorage  = errors.New("artifact storage failure")
)

// Pointer addresses a stored artifact.
type Pointer struct {
	Key      string `json:"key"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

// Store persists and retrieves artifacts.
type Store interface {
	Put(ctx context.Context, data []byte) (Pointer, error)
	Get(ctx context.Context, ptr Pointer) ([]byte, error)
	Delete(ctx context.Context, ptr Pointer) error
	Exists(ctx context.Context, ptr Pointer) (bool, error)
}

type store struct {
	blobs  storage.System
	logger *slog.Logger
}

// New creates an artifact Store over blobs.
func New(blobs storage.System, logger *slog.Logger) Store {
	return &store{
		blobs:  blobs,
		logger: logger.With("system", "artifacts"),
	}
}

// Put writes data under a fresh key. Key collisions are retried with a new key.
func (s *store) Put(ctx context.Context, data []byte) (Pointer, error) {
	ptr := Pointer{
		Checksum: Checksum(data),
		Size:     int64(len(data)),
	}

	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return Pointer{}, err
		}

		ptr.Key = newKey()
		err := s.blobs.Store(ctx, ptr.Key, data)
		if err == nil {
			s.logger.Debug("artifact stored", "key", ptr.Key, "size", ptr.Size)
			return ptr, nil
		}
		if !errors.Is(err, storage.ErrExists) {
			return Pointer{}, fmt.Errorf("%w: put %s: %w", ErrStorage, ptr.Key, err)
		}
	}

	return Pointer{}, fmt.Errorf("%w: could not allocate a unique key", ErrStorage)
}

func (s *store) Get(ctx context.Context, ptr Pointer) ([]byte, error) {
	data, err := s.blobs.Retrieve(ctx, ptr.Key)
	if err != nil {
		return nil, mapError(err, "get", ptr.Key)
	}
	return data, nil
}

func (s *store) Delete(ctx context.Context, ptr Pointer) error {
	if err := s.blobs.Delete(ctx, ptr.Key); err != nil {
		return mapError(err, "delete", ptr.Key)
	}
	s.logger.Debug("artifact deleted", "key", ptr.Key)
	return nil
}

func (s *store) Exists(ctx context.Context, ptr Pointer) (bool, error) {
	ok, err := s.blobs.Exists(ctx, ptr.Key)
	if err != nil {
		return false, mapError(err, "exists", ptr.Key)
	}
	return ok, nil
}

// Checksum returns the hex BLAKE3 digest of data.
func Checksum(data []byte) string {
	h := blake3.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether data matches the pointer's size and checksum.
func Verify(ptr Pointer, data []byte) bool {
	return int64(len(data)) == ptr.Size && Checksum(data) == ptr.Checksum
}

func newKey() string {
	id := uuid.New().String()
	return fmt.Sprintf("artifacts/%s/%s.pdf", id[:2], id)
}

func mapError(err error, op, key string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, key, err)
	}
}
