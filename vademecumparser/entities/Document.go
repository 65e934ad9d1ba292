package entities

// Document is the on-disk shape of the dataset. Both collections are pointers
// so a missing key can be told apart from an empty array.
type Document struct {
	Compounds *[]Compound `json:"compounds"`
	Brands    *[]Brand    `json:"brands"`
}

// CompoundList returns the compounds, or nil if the key was absent
func (d *Document) CompoundList() []Compound {
	if d == nil || d.Compounds == nil {
		return nil
	}
	return *d.Compounds
}

// BrandList returns the brands, or nil if the key was absent
func (d *Document) BrandList() []Brand {
	if d == nil || d.Brands == nil {
		return nil
	}
	return *d.Brands
}
