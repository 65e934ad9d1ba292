// Package data holds the in-memory dataset snapshot of the vademecum API.
// Snapshots are immutable and swapped atomically, so reads never lock and a
// reload never exposes a half-built dataset.
package data

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/metrics"
)

// Compile-time check to ensure Cache implements DataStore
var _ interfaces.DataStore = (*Cache)(nil)

const loadKey = "dataset"

// Cache memoizes the dataset snapshot produced from a parser
type Cache struct {
	parser    interfaces.Parser
	validator interfaces.DataValidator

	current     atomic.Pointer[Dataset]
	generation  atomic.Uint64
	group       singleflight.Group
	updating    atomic.Bool
	lastUpdated atomic.Value // time.Time

	loads    atomic.Int64
	failures atomic.Int64
}

// NewCache creates an empty cache. Nothing is fetched until the first Load.
func NewCache(parser interfaces.Parser, validator interfaces.DataValidator) *Cache {
	c := &Cache{parser: parser, validator: validator}
	c.lastUpdated.Store(time.Time{})
	return c
}

// Load returns the cached snapshot, fetching it on first use. Concurrent
// callers share one fetch. The fetch is not cancelled when ctx is; ctx only
// bounds how long this caller waits for it.
func (c *Cache) Load(ctx context.Context) (*Dataset, error) {
	if ds := c.current.Load(); ds != nil {
		return ds, nil
	}

	gen := c.generation.Load()
	fetchCtx := context.WithoutCancel(ctx)

	ch := c.group.DoChan(loadKey, func() (any, error) {
		if ds := c.current.Load(); ds != nil {
			return ds, nil
		}
		ds, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen && c.current.CompareAndSwap(nil, ds) {
			c.lastUpdated.Store(ds.LoadedAt())
		}
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Dataset), nil
	}
}

// Invalidate drops the snapshot. A fetch already in flight still answers
// its callers but does not repopulate the cache.
func (c *Cache) Invalidate() {
	c.generation.Add(1)
	c.current.Store(nil)
	c.group.Forget(loadKey)
	logging.Info("Dataset cache invalidated")
}

// Reload fetches a fresh snapshot and swaps it in. On failure the previous
// snapshot stays in place. Only one reload runs at a time.
func (c *Cache) Reload(ctx context.Context) error {
	if !c.BeginUpdate() {
		return ErrUpdateInProgress
	}
	defer c.EndUpdate()

	ds, err := c.fetch(ctx)
	if err != nil {
		if c.current.Load() != nil {
			logging.Warn("Dataset reload failed, keeping previous snapshot", "error", err)
		}
		return err
	}

	c.generation.Add(1)
	c.current.Store(ds)
	c.group.Forget(loadKey)
	c.lastUpdated.Store(ds.LoadedAt())

	return nil
}

// fetch parses a document and builds a snapshot from it
func (c *Cache) fetch(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	c.loads.Add(1)

	doc, err := c.parser.ParseDocument(ctx)
	if err != nil {
		c.failures.Add(1)
		metrics.RecordDatasetLoad(0, 0, err)
		logging.Error("Failed to load dataset", "source", c.parser.SourceName(), "error", err)

		var unavailable *UnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, &UnavailableError{Source: c.parser.SourceName(), Err: err}
	}

	ds := BuildDataset(doc, c.validator, c.parser.SourceName())
	logQualityReport(ds.QualityReport())
	metrics.RecordDatasetLoad(len(ds.compounds), len(ds.brands), nil)

	logging.Info("Dataset loaded",
		"source", ds.Source(),
		"compounds", len(ds.compounds),
		"brands", len(ds.brands),
		"duration", time.Since(start).String())

	return ds, nil
}

func logQualityReport(report *interfaces.DataQualityReport) {
	if report == nil {
		return
	}

	if len(report.DuplicateCompoundIDs) > 0 {
		logging.Warn("Duplicate compound IDs detected",
			"total", len(report.DuplicateCompoundIDs),
			"id_list", report.DuplicateCompoundIDs,
		)
	}

	if len(report.DuplicateBrandIDs) > 0 {
		logging.Warn("Duplicate brand IDs detected",
			"total", len(report.DuplicateBrandIDs),
			"id_list", report.DuplicateBrandIDs,
		)
	}

	if report.DanglingBrands > 0 {
		logging.Warn("Brands referencing unknown compounds",
			"count", report.DanglingBrands,
			"id_list", report.DanglingBrandIDs,
		)
	}

	if report.UnknownBrandRefs > 0 {
		logging.Debug("Compound brand references without a matching brand", "count", report.UnknownBrandRefs)
	}
}

// Current returns the snapshot without triggering a fetch. It is nil before
// the first successful load and after Invalidate.
func (c *Cache) Current() *Dataset {
	return c.current.Load()
}

// BeginUpdate marks the start of a reload
// Returns true if the reload can proceed, false if another one is in progress
func (c *Cache) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (c *Cache) EndUpdate() {
	c.updating.Store(false)
}

// LoadCount returns how many fetches were attempted
func (c *Cache) LoadCount() int64 {
	return c.loads.Load()
}

// FailureCount returns how many fetches failed
func (c *Cache) FailureCount() int64 {
	return c.failures.Load()
}

// LastUpdated returns when the current snapshot was built
func (c *Cache) LastUpdated() time.Time {
	return c.GetLastUpdated()
}

// GetLastUpdated returns the timestamp of the last successful load
func (c *Cache) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}
	return time.Time{}
}

// IsUpdating returns true if a reload is currently in progress
func (c *Cache) IsUpdating() bool {
	return c.updating.Load()
}

func (c *Cache) IsLoaded() bool {
	return c.current.Load() != nil
}

func (c *Cache) CompoundCount() int {
	if ds := c.current.Load(); ds != nil {
		return len(ds.compounds)
	}
	return 0
}

func (c *Cache) BrandCount() int {
	if ds := c.current.Load(); ds != nil {
		return len(ds.brands)
	}
	return 0
}

func (c *Cache) QualityReport() *interfaces.DataQualityReport {
	if ds := c.current.Load(); ds != nil {
		return ds.QualityReport()
	}
	return nil
}

func (c *Cache) SourceName() string {
	return c.parser.SourceName()
}
