// Package previews rasterises document pages to PNG or JPEG and caches the
// results in blob storage.
package previews

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/pdf-lab/internal/documents"
)

var (
	ErrInvalidOption  = errors.New("invalid render option")
	ErrPageOutOfRange = errors.New("page number out of range")
	ErrRenderFailed   = errors.New("render failed")
)

// MapHTTPStatus maps preview errors to HTTP status codes, deferring to the
// document errors for lookups.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidOption), errors.Is(err, ErrPageOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrRenderFailed):
		return http.StatusInternalServerError
	}
	return documents.MapHTTPStatus(err)
}

// ErrorKind returns the stable kind for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOption), errors.Is(err, ErrPageOutOfRange):
		return documents.KindInvalidRequest
	case errors.Is(err, ErrRenderFailed):
		return documents.KindInternal
	}
	return documents.ErrorKind(err)
}
