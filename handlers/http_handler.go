// Package handlers provides HTTP request handlers for the vademecum API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/query"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// Client-facing messages
const (
	msgCompoundNotFound = "Compuesto no encontrado"
	msgBrandNotFound    = "Marca no encontrada"
	msgQueryRequired    = "Parámetro de búsqueda requerido"
	msgInvalidID        = "Identificador inválido"
	msgInvalidScope     = "Parámetro scope inválido: use compounds, brands o all"
	msgInternalError    = "Error interno del servidor"
)

// Engine is the query surface the handlers need
type Engine interface {
	GetCompoundByID(ctx context.Context, id string) (entities.Compound, error)
	GetBrandByID(ctx context.Context, id string) (entities.Brand, error)
	GetBrandsForCompound(ctx context.Context, compoundID string) ([]entities.Brand, error)
	GetCompoundWithBrands(ctx context.Context, id string) (entities.Compound, []entities.Brand, error)
	ListCompounds(ctx context.Context) ([]entities.Compound, error)
	ListBrands(ctx context.Context) ([]entities.Brand, error)
	Search(ctx context.Context, q string, scope query.Scope) (*query.Results, error)
	GetStats(ctx context.Context) (data.Stats, error)
}

// Compile-time check to ensure HTTPHandlerImpl implements interfaces.HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	engine        Engine
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(engine Engine, dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		engine:        engine,
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

type listResponse[T any] struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    []T  `json:"data"`
}

type itemResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// compoundDetail is a compound with its brands inlined
type compoundDetail struct {
	entities.Compound
	Brands []entities.Brand `json:"brands"`
}

type compoundHit struct {
	entities.Compound
	Tier query.Tier `json:"tier"`
}

type brandHit struct {
	entities.Brand
	Tier query.Tier `json:"tier"`
}

type searchResponse struct {
	Success   bool                 `json:"success"`
	Query     string               `json:"query"`
	Scope     query.Scope          `json:"scope"`
	Compounds []compoundHit        `json:"compounds"`
	Brands    []brandHit           `json:"brands"`
	Count     int                  `json:"count"`
	Upcoming  query.UpcomingCounts `json:"upcoming"`
}

type statsResponse struct {
	Success bool `json:"success"`
	data.Stats
}

// GenerateETag returns a quoted strong ETag from the first 8 bytes of the
// SHA-256 of body
func GenerateETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}

// CheckETag reports whether the request's If-None-Match equals etag
func CheckETag(r *http.Request, etag string) bool {
	return r.Header.Get("If-None-Match") == etag
}

// RespondWithJSON writes payload as JSON with the given status code
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(body)
}

// RespondWithCachedJSON writes a cacheable 200 response. A request whose
// If-None-Match equals the body's ETag gets a bodiless 304.
func (h *HTTPHandlerImpl) RespondWithCachedJSON(w http.ResponseWriter, r *http.Request, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	etag := GenerateETag(body)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Last-Modified", h.lastModified().Format(http.TimeFormat))

	if CheckETag(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// RespondWithError writes a {success:false,error} body
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, errorResponse{Success: false, Error: message})
}

func (h *HTTPHandlerImpl) lastModified() time.Time {
	if h.dataStore != nil {
		if t := h.dataStore.GetLastUpdated(); !t.IsZero() {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// handleError maps engine errors to responses. Only unexpected failures are
// logged as errors; the client always gets a generic message for those.
func (h *HTTPHandlerImpl) handleError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, query.ErrNotFound):
		logging.Debug("Record not found", "path", r.URL.Path)
		h.RespondWithError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, query.ErrInvalidQuery):
		h.RespondWithError(w, http.StatusBadRequest, msgQueryRequired)
	case errors.Is(err, query.ErrDatasetUnavailable):
		logging.Error("Dataset unavailable", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, msgInternalError)
	case errors.Is(err, context.Canceled):
		logging.Debug("Request cancelled", "path", r.URL.Path)
		h.RespondWithError(w, http.StatusInternalServerError, msgInternalError)
	default:
		logging.Error("Unexpected query failure", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// pathID reads and validates the {id} URL parameter. It writes the 400
// itself and returns false when the id is malformed.
func (h *HTTPHandlerImpl) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateID(id); err != nil {
		logging.Warn("Unusual user input", "id", id, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, msgInvalidID)
		return "", false
	}
	return id, true
}

// ListCompounds returns every compound in dataset order
func (h *HTTPHandlerImpl) ListCompounds(w http.ResponseWriter, r *http.Request) {
	compounds, err := h.engine.ListCompounds(r.Context())
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}
	h.RespondWithCachedJSON(w, r, listResponse[entities.Compound]{Success: true, Count: len(compounds), Data: compounds})
}

// GetCompound returns one compound with its brands
func (h *HTTPHandlerImpl) GetCompound(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	compound, brands, err := h.engine.GetCompoundWithBrands(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, msgCompoundNotFound)
		return
	}

	h.RespondWithCachedJSON(w, r, itemResponse[compoundDetail]{
		Success: true,
		Data:    compoundDetail{Compound: compound, Brands: brands},
	})
}

// GetCompoundBrands lists the brands of a compound. An unknown compound is
// a 404 here even though the engine treats it as an empty grouping.
func (h *HTTPHandlerImpl) GetCompoundBrands(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	_, brands, err := h.engine.GetCompoundWithBrands(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, msgCompoundNotFound)
		return
	}

	h.RespondWithCachedJSON(w, r, listResponse[entities.Brand]{Success: true, Count: len(brands), Data: brands})
}

// ListBrands lists brands, optionally narrowed by ?compoundId= and ranked by
// ?q=. A missing or blank q lists everything.
func (h *HTTPHandlerImpl) ListBrands(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	compoundID := strings.TrimSpace(r.URL.Query().Get("compoundId"))

	if compoundID != "" {
		if err := h.validator.ValidateID(compoundID); err != nil {
			logging.Warn("Unusual user input", "compoundId", compoundID, "error", err)
			h.RespondWithError(w, http.StatusBadRequest, msgInvalidID)
			return
		}
	}

	var (
		brands []entities.Brand
		err    error
	)

	switch {
	case q == "" && compoundID != "":
		brands, err = h.engine.GetBrandsForCompound(r.Context(), compoundID)
	case q == "":
		brands, err = h.engine.ListBrands(r.Context())
	default:
		if verr := h.validator.ValidateInput(q); verr != nil {
			logging.Warn("Unusual user input", "q", q, "error", verr)
			h.RespondWithError(w, http.StatusBadRequest, verr.Error())
			return
		}
		var res *query.Results
		res, err = h.engine.Search(r.Context(), q, query.ScopeBrands)
		if err == nil {
			brands = filterByCompound(res.BrandRecords(), compoundID)
		}
	}

	if err != nil {
		h.handleError(w, r, err, "")
		return
	}

	h.RespondWithCachedJSON(w, r, listResponse[entities.Brand]{Success: true, Count: len(brands), Data: brands})
}

func filterByCompound(brands []entities.Brand, compoundID string) []entities.Brand {
	if compoundID == "" {
		return brands
	}
	out := make([]entities.Brand, 0, len(brands))
	for _, b := range brands {
		if b.CompoundID == compoundID {
			out = append(out, b)
		}
	}
	return out
}

// GetBrand returns one brand
func (h *HTTPHandlerImpl) GetBrand(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	brand, err := h.engine.GetBrandByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, msgBrandNotFound)
		return
	}

	h.RespondWithCachedJSON(w, r, itemResponse[entities.Brand]{Success: true, Data: brand})
}

// Search runs a ranked search over ?scope= (default all). q is required.
func (h *HTTPHandlerImpl) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.RespondWithError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	if err := h.validator.ValidateInput(q); err != nil {
		logging.Warn("Unusual user input", "q", q, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	scope, err := query.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, msgInvalidScope)
		return
	}

	res, err := h.engine.Search(r.Context(), q, scope)
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}

	resp := searchResponse{
		Success:   true,
		Query:     res.Query,
		Scope:     res.Scope,
		Compounds: make([]compoundHit, len(res.Compounds)),
		Brands:    make([]brandHit, len(res.Brands)),
		Count:     res.Count(),
		Upcoming:  res.UpcomingCounts(),
	}
	for i, m := range res.Compounds {
		resp.Compounds[i] = compoundHit{Compound: m.Record, Tier: m.Tier}
	}
	for i, m := range res.Brands {
		resp.Brands[i] = brandHit{Brand: m.Record, Tier: m.Tier}
	}

	h.RespondWithCachedJSON(w, r, resp)
}

// Stats returns counts derived from the current snapshot
func (h *HTTPHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStats(r.Context())
	if err != nil {
		h.handleError(w, r, err, "")
		return
	}
	h.RespondWithCachedJSON(w, r, statsResponse{Success: true, Stats: stats})
}

// HealthCheck reports dataset health. It is never cached.
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, code := h.healthChecker.HealthCheck()

	w.Header().Set("Cache-Control", "no-store")
	h.RespondWithJSON(w, code, map[string]any{
		"status": status,
		"data":   details,
	})
}
