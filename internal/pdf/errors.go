package pdf

import "errors"

var (
	// ErrValidation reports bytes that cannot be parsed far enough to enumerate pages.
	ErrValidation = errors.New("malformed or unsupported document")

	// ErrInvalidRequest reports a transform whose arguments violate the document's bounds.
	ErrInvalidRequest = errors.New("invalid request")
)
