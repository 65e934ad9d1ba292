package entities

import "slices"

// Compound is a pharmacological active ingredient.
type Compound struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Family            string     `json:"family"`
	Indications       string     `json:"indications"`
	Dosage            string     `json:"dosage"`
	Warnings          string     `json:"warnings"`
	Mechanism         string     `json:"mechanism"`
	BrandIDs          []string   `json:"brandIds"`
	GenericIDs        []string   `json:"genericIds"`
	SideEffects       []string   `json:"sideEffects"`
	Contraindications string     `json:"contraindications"`
	FamilyID          string     `json:"familyId"`
	AccessTier        AccessTier `json:"accessTier"`
}

// Clone returns a copy that shares no slices with c
func (c Compound) Clone() Compound {
	c.BrandIDs = slices.Clone(c.BrandIDs)
	c.GenericIDs = slices.Clone(c.GenericIDs)
	c.SideEffects = slices.Clone(c.SideEffects)
	return c
}
