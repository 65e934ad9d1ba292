package entities

// Brand is a commercial product containing one compound.
type Brand struct {
	ID                string     `json:"id"`
	CompoundID        string     `json:"compoundId"`
	Name              string     `json:"name"`
	CompoundName      string     `json:"compoundName"`
	Lab               string     `json:"lab"`
	Family            string     `json:"family"`
	Usage             string     `json:"usage"`
	Presentation      string     `json:"presentation"`
	Contraindications string     `json:"contraindications"`
	Route             string     `json:"route,omitempty"`
	Type              string     `json:"type"`
	LaboratoryName    string     `json:"laboratoryName"`
	LaboratoryID      string     `json:"laboratoryId"`
	FamilyID          string     `json:"familyId"`
	AccessTier        AccessTier `json:"accessTier,omitempty"`
}

// EffectiveTier returns the brand's own tier, falling back to the parent
// compound's tier and then to Public.
func (b Brand) EffectiveTier(parent *Compound) AccessTier {
	if b.AccessTier != "" {
		return b.AccessTier
	}
	if parent != nil && parent.AccessTier != "" {
		return parent.AccessTier
	}
	return AccessPublic
}
