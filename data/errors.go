package data

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetUnavailable is matched by every load failure: unreadable
	// source, malformed document or invalid record.
	ErrDatasetUnavailable = errors.New("dataset unavailable")

	// ErrUpdateInProgress is returned by Reload when another reload is running
	ErrUpdateInProgress = errors.New("dataset update already in progress")
)

// UnavailableError carries the source and the underlying cause of a failed load.
//
// errors.Is(err, ErrDatasetUnavailable) holds for every UnavailableError.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("dataset unavailable from %s: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrDatasetUnavailable, e.Err}
}
