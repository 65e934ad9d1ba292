package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/vademecum-api/data"
	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/query"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

// TestDataFactory creates consistent test data across all tests
type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateCompound creates a public compound with realistic fields
func (f *TestDataFactory) CreateCompound(id, name string) entities.Compound {
	return entities.Compound{
		ID:                id,
		Name:              name,
		Family:            "Analgésicos y antipiréticos",
		Indications:       "Dolor leve a moderado.",
		Dosage:            "500 mg cada 8 horas.",
		Warnings:          "Hepatotoxicidad a dosis altas.",
		Mechanism:         "Inhibición central de prostaglandinas.",
		BrandIDs:          []string{},
		GenericIDs:        []string{},
		SideEffects:       []string{"Náuseas"},
		Contraindications: "Insuficiencia hepática.",
		FamilyID:          "FA-000001",
		AccessTier:        entities.AccessPublic,
	}
}

// CreateBrand creates a brand of compoundID
func (f *TestDataFactory) CreateBrand(id, compoundID, name string) entities.Brand {
	return entities.Brand{
		ID:             id,
		CompoundID:     compoundID,
		Name:           name,
		CompoundName:   "Paracetamol",
		Lab:            "Laboratorios Andinos",
		Family:         "Analgésicos y antipiréticos",
		Presentation:   "Caja x 20 tabletas",
		Type:           "Marca",
		LaboratoryName: "Laboratorios Andinos",
		LaboratoryID:   "LA-000001",
	}
}

// ============================================================================
// MOCK ENGINE
// ============================================================================

// MockEngine answers queries from fixed collections
type MockEngine struct {
	compounds []entities.Compound
	brands    []entities.Brand
	results   *query.Results
	stats     data.Stats
	err       error

	lastQuery string
	lastScope query.Scope

	compoundWithBrandsCalls int
}

func (m *MockEngine) GetCompoundByID(ctx context.Context, id string) (entities.Compound, error) {
	if m.err != nil {
		return entities.Compound{}, m.err
	}
	for _, c := range m.compounds {
		if c.ID == id {
			return c, nil
		}
	}
	return entities.Compound{}, query.ErrNotFound
}

func (m *MockEngine) GetBrandByID(ctx context.Context, id string) (entities.Brand, error) {
	if m.err != nil {
		return entities.Brand{}, m.err
	}
	for _, b := range m.brands {
		if b.ID == id {
			return b, nil
		}
	}
	return entities.Brand{}, query.ErrNotFound
}

func (m *MockEngine) GetBrandsForCompound(ctx context.Context, compoundID string) ([]entities.Brand, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []entities.Brand{}
	for _, b := range m.brands {
		if b.CompoundID == compoundID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockEngine) GetCompoundWithBrands(ctx context.Context, id string) (entities.Compound, []entities.Brand, error) {
	m.compoundWithBrandsCalls++
	c, err := m.GetCompoundByID(ctx, id)
	if err != nil {
		return entities.Compound{}, nil, err
	}
	brands, err := m.GetBrandsForCompound(ctx, id)
	if err != nil {
		return entities.Compound{}, nil, err
	}
	return c, brands, nil
}

func (m *MockEngine) ListCompounds(ctx context.Context) ([]entities.Compound, error) {
	return m.compounds, m.err
}

func (m *MockEngine) ListBrands(ctx context.Context) ([]entities.Brand, error) {
	return m.brands, m.err
}

func (m *MockEngine) Search(ctx context.Context, q string, scope query.Scope) (*query.Results, error) {
	m.lastQuery = q
	m.lastScope = scope
	if m.err != nil {
		return nil, m.err
	}
	if m.results != nil {
		return m.results, nil
	}
	return &query.Results{Query: q, Scope: scope}, nil
}

func (m *MockEngine) GetStats(ctx context.Context) (data.Stats, error) {
	return m.stats, m.err
}

// MockEngineBuilder provides fluent interface for building mock engines
type MockEngineBuilder struct {
	mock *MockEngine
}

func NewMockEngineBuilder() *MockEngineBuilder {
	return &MockEngineBuilder{mock: &MockEngine{
		compounds: []entities.Compound{},
		brands:    []entities.Brand{},
	}}
}

func (b *MockEngineBuilder) WithCompounds(compounds ...entities.Compound) *MockEngineBuilder {
	b.mock.compounds = compounds
	return b
}

func (b *MockEngineBuilder) WithBrands(brands ...entities.Brand) *MockEngineBuilder {
	b.mock.brands = brands
	return b
}

func (b *MockEngineBuilder) WithResults(results *query.Results) *MockEngineBuilder {
	b.mock.results = results
	return b
}

func (b *MockEngineBuilder) WithStats(stats data.Stats) *MockEngineBuilder {
	b.mock.stats = stats
	return b
}

func (b *MockEngineBuilder) WithError(err error) *MockEngineBuilder {
	b.mock.err = err
	return b
}

func (b *MockEngineBuilder) Build() *MockEngine {
	return b.mock
}

// ============================================================================
// MOCK DATA STORE
// ============================================================================

type MockDataStore struct {
	lastUpdated time.Time
	compounds   int
	brands      int
	updating    bool
}

func (m *MockDataStore) IsLoaded() bool { return m.compounds > 0 }
func (m *MockDataStore) CompoundCount() int { return m.compounds }
func (m *MockDataStore) BrandCount() int { return m.brands }
func (m *MockDataStore) QualityReport() *interfaces.DataQualityReport { return nil }
func (m *MockDataStore) GetLastUpdated() time.Time { return m.lastUpdated }
func (m *MockDataStore) IsUpdating() bool { return m.updating }
func (m *MockDataStore) SourceName() string { return "mock" }

// MockDataStoreBuilder provides fluent interface for building mock data stores
type MockDataStoreBuilder struct {
	mock *MockDataStore
}

func NewMockDataStoreBuilder() *MockDataStoreBuilder {
	return &MockDataStoreBuilder{mock: &MockDataStore{}}
}

func (b *MockDataStoreBuilder) WithLastUpdated(t time.Time) *MockDataStoreBuilder {
	b.mock.lastUpdated = t
	return b
}

func (b *MockDataStoreBuilder) WithCounts(compounds, brands int) *MockDataStoreBuilder {
	b.mock.compounds = compounds
	b.mock.brands = brands
	return b
}

func (b *MockDataStoreBuilder) Build() *MockDataStore {
	return b.mock
}

// ============================================================================
// MOCK VALIDATOR
// ============================================================================

type MockDataValidator struct {
	validateInputError error
	validateIDError    error
}

func (m *MockDataValidator) ValidateCompound(c *entities.Compound) error { return nil }
func (m *MockDataValidator) ValidateBrand(b *entities.Brand) error { return nil }
func (m *MockDataValidator) ValidateDocument(doc *entities.Document) error { return nil }
func (m *MockDataValidator) ValidateInput(input string) error { return m.validateInputError }
func (m *MockDataValidator) ValidateID(input string) error { return m.validateIDError }
func (m *MockDataValidator) ReportDataQuality(compounds []entities.Compound, brands []entities.Brand) *interfaces.DataQualityReport {
	return &interfaces.DataQualityReport{}
}

// MockDataValidatorBuilder provides fluent interface for building mock validators
type MockDataValidatorBuilder struct {
	mock *MockDataValidator
}

func NewMockDataValidatorBuilder() *MockDataValidatorBuilder {
	return &MockDataValidatorBuilder{mock: &MockDataValidator{}}
}

func (b *MockDataValidatorBuilder) WithInputError(err error) *MockDataValidatorBuilder {
	b.mock.validateInputError = err
	return b
}

func (b *MockDataValidatorBuilder) WithIDError(err error) *MockDataValidatorBuilder {
	b.mock.validateIDError = err
	return b
}

func (b *MockDataValidatorBuilder) Build() *MockDataValidator {
	return b.mock
}

// ============================================================================
// MOCK HEALTH CHECKER
// ============================================================================

type MockHealthChecker struct {
	status string
	data   map[string]any
	code   int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.code
}

// ============================================================================
// HTTP TEST UTILITIES
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given URL params and headers
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, path string, urlParams map[string]string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// DecodeBody decodes the recorded JSON body into a generic map
func (h *HTTPTestHelper) DecodeBody(rr *httptest.ResponseRecorder) map[string]any {
	h.t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		h.t.Fatalf("Failed to decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

// AssertError checks a {success:false,error} response
func (h *HTTPTestHelper) AssertError(rr *httptest.ResponseRecorder, code int, message string) {
	h.t.Helper()
	if rr.Code != code {
		h.t.Errorf("Expected status %d, got %d", code, rr.Code)
	}
	body := h.DecodeBody(rr)
	if body["success"] != false {
		h.t.Errorf("Expected success=false, got %v", body["success"])
	}
	if body["error"] != message {
		h.t.Errorf("Expected error %q, got %q", message, body["error"])
	}
}

func newTestHandler(engine *MockEngine, validator *MockDataValidator) *HTTPHandlerImpl {
	store := NewMockDataStoreBuilder().
		WithLastUpdated(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).
		WithCounts(len(engine.compounds), len(engine.brands)).
		Build()
	health := &MockHealthChecker{status: "healthy", data: map[string]any{}, code: http.StatusOK}
	return NewHTTPHandler(engine, store, validator, health).(*HTTPHandlerImpl)
}
