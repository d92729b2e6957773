package documents

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/pdf-lab/internal/artifacts"
	"github.com/JaimeStill/pdf-lab/internal/pdf"
)

// Domain errors for document operations.
var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicate      = errors.New("document already exists")
	ErrFileTooLarge   = errors.New("file exceeds maximum upload size")
	ErrInvalidFile    = errors.New("invalid file")
	ErrInvalidRequest = errors.New("invalid request")
	ErrIntegrity      = errors.New("document integrity check failed")
)

// Stable error kinds reported to clients.
const (
	KindValidation     = "ValidationError"
	KindInvalidRequest = "InvalidRequest"
	KindNotFound       = "NotFound"
	KindConflict       = "Conflict"
	KindStorage        = "StorageFailure"
	KindIntegrity      = "IntegrityError"
	KindTimeout        = "Timeout"
	KindInternal       = "InternalError"
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, pdf.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, pdf.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, artifacts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorKind returns the stable kind for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrInvalidFile), errors.Is(err, pdf.ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, pdf.ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, artifacts.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindConflict
	case errors.Is(err, ErrIntegrity):
		return KindIntegrity
	case errors.Is(err, artifacts.ErrStorage):
		return KindStorage
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}
