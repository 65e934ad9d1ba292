// Package health provides health checking functionality for the vademecum API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/vademecum-api/interfaces"
)

// staleAfter is how old a snapshot may get while reloads are scheduled
const staleAfter = 48 * time.Hour

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	scheduler interfaces.Scheduler
	now       func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// scheduler may be nil when scheduled reloads are disabled; a static
// snapshot never goes stale then.
func NewHealthChecker(dataStore interfaces.DataStore, scheduler interfaces.Scheduler) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// HealthCheck returns the status label, the response data and the HTTP code
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	loaded := h.dataStore.IsLoaded()
	compounds := h.dataStore.CompoundCount()
	brands := h.dataStore.BrandCount()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	var dataAge time.Duration
	if !lastUpdate.IsZero() {
		dataAge = h.now().Sub(lastUpdate)
	}

	switch {
	case !loaded || compounds == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case h.scheduler != nil && dataAge > staleAfter:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"source":         h.dataStore.SourceName(),
		"compounds":      compounds,
		"brands":         brands,
		"is_updating":    isUpdating,
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
	}

	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
	}

	if h.scheduler != nil {
		if next := h.scheduler.NextRun(); !next.IsZero() {
			data["next_update"] = next.Format(time.RFC3339)
		}
	}

	if report := h.dataStore.QualityReport(); report != nil {
		data["dangling_brands"] = report.DanglingBrands
		data["duplicate_ids"] = len(report.DuplicateCompoundIDs) + len(report.DuplicateBrandIDs)
	}

	return status, data, httpStatus
}
