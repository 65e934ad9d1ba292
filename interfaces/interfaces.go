// Package interfaces defines core abstractions for the vademecum API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// DataQualityReport summarizes issues found in a dataset snapshot. None of
// them fail a load; they are logged and exposed through health.
type DataQualityReport struct {
	DuplicateCompoundIDs   []string
	DuplicateBrandIDs      []string
	DanglingBrands         int      // brands whose compoundId resolves to no compound
	DanglingBrandIDs       []string // first 10
	CompoundsWithoutBrands int
	UnknownBrandRefs       int // compound.brandIds entries with no matching brand
}

// DataStore exposes the state of the loaded dataset snapshot to health
// checks and metrics without handing out the snapshot itself.
type DataStore interface {
	IsLoaded() bool
	CompoundCount() int
	BrandCount() int
	QualityReport() *DataQualityReport
	GetLastUpdated() time.Time
	IsUpdating() bool
	SourceName() string
}

// Source provides the raw dataset document.
type Source interface {
	// Name identifies the source in logs and errors
	Name() string
	// Open returns a reader over the JSON document. Callers must close it.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Parser turns a Source into a validated document.
type Parser interface {
	// ParseDocument reads, decodes and validates the whole document. It never
	// returns a partially valid document.
	ParseDocument(ctx context.Context) (*entities.Document, error)
	// SourceName identifies where the document comes from
	SourceName() string
}

// Scheduler defines the contract for job scheduling and health monitoring.
type Scheduler interface {
	Start() error
	Stop()
	NextRun() time.Time
}

// HTTPHandler defines the contract for the vademecum HTTP endpoints.
type HTTPHandler interface {
	ListCompounds(w http.ResponseWriter, r *http.Request)
	GetCompound(w http.ResponseWriter, r *http.Request)
	GetCompoundBrands(w http.ResponseWriter, r *http.Request)
	ListBrands(w http.ResponseWriter, r *http.Request)
	GetBrand(w http.ResponseWriter, r *http.Request)
	Search(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns the status label, response data and HTTP status code
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

// DataValidator defines the contract for data validation operations.
type DataValidator interface {
	// ValidateCompound checks a single compound record
	ValidateCompound(c *entities.Compound) error

	// ValidateBrand checks a single brand record
	ValidateBrand(b *entities.Brand) error

	// ValidateDocument checks shape and every record, failing on the first problem
	ValidateDocument(doc *entities.Document) error

	// ReportDataQuality collects non-fatal issues across both collections
	ReportDataQuality(compounds []entities.Compound, brands []entities.Brand) *DataQualityReport

	// ValidateInput validates free-text search input
	ValidateInput(input string) error

	// ValidateID validates a record id taken from the URL
	ValidateID(input string) error
}
