package query

import (
	"errors"

	"github.com/giygas/vademecum-api/data"
)

var (
	// ErrNotFound is returned by id lookups when no record matches
	ErrNotFound = errors.New("record not found")

	// ErrInvalidQuery is returned by Search when the query is blank after
	// normalization
	ErrInvalidQuery = errors.New("search query is empty")

	// ErrDatasetUnavailable is data.ErrDatasetUnavailable, re-exported so
	// callers of the engine need not import the data package.
	ErrDatasetUnavailable = data.ErrDatasetUnavailable
)
