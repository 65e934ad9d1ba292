package data

import (
	"time"

	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/vademecumparser"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// SearchKey holds the pre-normalized searchable text of one record.
// Fields always starts with Name when the name is non-empty.
type SearchKey struct {
	Name   string
	Fields []string
	Tier   entities.AccessTier
}

// Stats are counts derived from a snapshot
type Stats struct {
	TotalCompounds    int `json:"totalCompounds"`
	TotalBrands       int `json:"totalBrands"`
	TotalFamilies     int `json:"totalFamilies"`
	TotalLaboratories int `json:"totalLaboratories"`
}

// Dataset is an immutable snapshot produced by one load. Nothing in it is
// modified after BuildDataset returns; accessors hand out copies that share
// no slices with it.
type Dataset struct {
	compounds []entities.Compound
	brands    []entities.Brand

	compoundsByID    map[string]int
	brandsByID       map[string]int
	brandsByCompound map[string][]int

	compoundKeys []SearchKey
	brandKeys    []SearchKey

	stats    Stats
	report   *interfaces.DataQualityReport
	source   string
	loadedAt time.Time
}

// BuildDataset indexes a validated document. On duplicate ids the first
// record in dataset order wins. Brands whose compound does not resolve are
// left out of the compound grouping.
func BuildDataset(doc *entities.Document, validator interfaces.DataValidator, source string) *Dataset {
	compounds := doc.CompoundList()
	brands := doc.BrandList()

	ds := &Dataset{
		compounds:        compounds,
		brands:           brands,
		compoundsByID:    make(map[string]int, len(compounds)),
		brandsByID:       make(map[string]int, len(brands)),
		brandsByCompound: make(map[string][]int),
		compoundKeys:     make([]SearchKey, len(compounds)),
		brandKeys:        make([]SearchKey, len(brands)),
		source:           source,
		loadedAt:         time.Now(),
	}

	for i := range compounds {
		if _, exists := ds.compoundsByID[compounds[i].ID]; !exists {
			ds.compoundsByID[compounds[i].ID] = i
		}
	}

	for i := range brands {
		if _, exists := ds.brandsByID[brands[i].ID]; !exists {
			ds.brandsByID[brands[i].ID] = i
		}
		if _, ok := ds.compoundsByID[brands[i].CompoundID]; ok {
			ds.brandsByCompound[brands[i].CompoundID] = append(ds.brandsByCompound[brands[i].CompoundID], i)
		}
	}

	for i := range brands {
		b := &brands[i]
		var parent *entities.Compound
		if idx, ok := ds.compoundsByID[b.CompoundID]; ok {
			parent = &compounds[idx]
		}
		name := vademecumparser.Normalize(b.Name)
		ds.brandKeys[i] = SearchKey{
			Name:   name,
			Fields: nonEmpty(name, vademecumparser.Normalize(b.Family), vademecumparser.Normalize(b.CompoundName)),
			Tier:   b.EffectiveTier(parent),
		}
	}

	for i := range compounds {
		c := &compounds[i]
		name := vademecumparser.Normalize(c.Name)
		fields := nonEmpty(name, vademecumparser.Normalize(c.Family))
		for _, bi := range ds.brandsByCompound[c.ID] {
			fields = append(fields, ds.brandKeys[bi].Name)
		}
		ds.compoundKeys[i] = SearchKey{Name: name, Fields: fields, Tier: c.AccessTier}
	}

	ds.stats = computeStats(compounds, brands)
	ds.report = validator.ReportDataQuality(compounds, brands)

	return ds
}

// computeStats counts distinct families across both collections and distinct
// laboratories across brands, compared after normalization
func computeStats(compounds []entities.Compound, brands []entities.Brand) Stats {
	families := make(map[string]struct{})
	labs := make(map[string]struct{})

	for i := range compounds {
		if f := vademecumparser.Normalize(compounds[i].Family); f != "" {
			families[f] = struct{}{}
		}
	}

	for i := range brands {
		if f := vademecumparser.Normalize(brands[i].Family); f != "" {
			families[f] = struct{}{}
		}
		lab := vademecumparser.Normalize(brands[i].LaboratoryName)
		if lab == "" {
			lab = vademecumparser.Normalize(brands[i].Lab)
		}
		if lab != "" {
			labs[lab] = struct{}{}
		}
	}

	return Stats{
		TotalCompounds:    len(compounds),
		TotalBrands:       len(brands),
		TotalFamilies:     len(families),
		TotalLaboratories: len(labs),
	}
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Compounds returns a copy of the compounds in dataset order
func (ds *Dataset) Compounds() []entities.Compound {
	out := make([]entities.Compound, len(ds.compounds))
	for i, c := range ds.compounds {
		out[i] = c.Clone()
	}
	return out
}

// Brands returns a copy of the brands in dataset order
func (ds *Dataset) Brands() []entities.Brand {
	out := make([]entities.Brand, len(ds.brands))
	copy(out, ds.brands)
	return out
}

// CompoundAt returns the compound at dataset position i
func (ds *Dataset) CompoundAt(i int) entities.Compound {
	return ds.compounds[i].Clone()
}

// BrandAt returns the brand at dataset position i
func (ds *Dataset) BrandAt(i int) entities.Brand {
	return ds.brands[i]
}

// CompoundByID is an O(1) lookup
func (ds *Dataset) CompoundByID(id string) (entities.Compound, bool) {
	idx, ok := ds.compoundsByID[id]
	if !ok {
		return entities.Compound{}, false
	}
	return ds.compounds[idx].Clone(), true
}

// BrandByID is an O(1) lookup
func (ds *Dataset) BrandByID(id string) (entities.Brand, bool) {
	idx, ok := ds.brandsByID[id]
	if !ok {
		return entities.Brand{}, false
	}
	return ds.brands[idx], true
}

// BrandsForCompound returns the brands referencing compoundID in dataset
// order. Unknown ids give an empty, non-nil slice.
func (ds *Dataset) BrandsForCompound(compoundID string) []entities.Brand {
	indices := ds.brandsByCompound[compoundID]
	out := make([]entities.Brand, 0, len(indices))
	for _, i := range indices {
		out = append(out, ds.brands[i])
	}
	return out
}

// CompoundKeys returns the search keys aligned with the compounds. Read only.
func (ds *Dataset) CompoundKeys() []SearchKey {
	return ds.compoundKeys
}

// BrandKeys returns the search keys aligned with the brands. Read only.
func (ds *Dataset) BrandKeys() []SearchKey {
	return ds.brandKeys
}

func (ds *Dataset) Stats() Stats {
	return ds.stats
}

func (ds *Dataset) QualityReport() *interfaces.DataQualityReport {
	return ds.report
}

func (ds *Dataset) Source() string {
	return ds.source
}

func (ds *Dataset) LoadedAt() time.Time {
	return ds.loadedAt
}
