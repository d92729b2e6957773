package shares

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound         = errors.New("share link not found")
	ErrDocumentNotFound = errors.New("shared document not found")
	ErrDuplicate        = errors.New("share link already exists")
	ErrExpired          = errors.New("share link has expired")
	ErrDeactivated      = errors.New("share link is deactivated")
	ErrLimitReached     = errors.New("share link download limit reached")
	ErrForbidden        = errors.New("requester does not own the share link")
	ErrViewOnly         = errors.New("share link does not allow downloads")
	ErrInvalidRequest   = errors.New("invalid request")
)

const (
	KindNotFound       = "NotFound"
	KindLink           = "LinkError"
	KindForbidden      = "Forbidden"
	KindInvalidRequest = "InvalidRequest"
	KindConflict       = "Conflict"
	KindInternal       = "InternalError"
)

// IsLinkError reports whether err is a terminal link state.
func IsLinkError(err error) bool {
	return errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrDeactivated) ||
		errors.Is(err, ErrLimitReached)
}

// MapHTTPStatus converts ledger errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case IsLinkError(err):
		return http.StatusGone
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrViewOnly):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorKind returns the stable kind for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDocumentNotFound):
		return KindNotFound
	case IsLinkError(err):
		return KindLink
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrViewOnly):
		return KindForbidden
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrDuplicate):
		return KindConflict
	}
	return KindInternal
}
