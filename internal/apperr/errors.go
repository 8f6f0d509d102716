// Package apperr defines the error taxonomy shared by the content store,
// the rendering service and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSessionNotFound = errors.New("search session not found")
	ErrInvalidPath     = errors.New("invalid path")
)

// StatusError reports a non-success, non-404 status returned by the content store.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch content (%d)", e.Status)
}

// FromStatus maps a store response status to an error. Success statuses map to nil.
func FromStatus(status int, path string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	default:
		return &StatusError{Status: status, Path: path}
	}
}

// Status extracts the upstream status from err, or 0 if err carries none.
func Status(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
