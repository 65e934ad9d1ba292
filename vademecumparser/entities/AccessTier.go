package entities

import (
	"encoding/json"
	"fmt"
)

// AccessTier classifies a record as generally available or restricted content.
type AccessTier string

const (
	AccessPublic   AccessTier = "Public"
	AccessFreemium AccessTier = "Freemium"
)

// IsValid reports whether t is one of the known tiers.
func (t AccessTier) IsValid() bool {
	return t == AccessPublic || t == AccessFreemium
}

// IsRestricted reports whether the record is not generally available yet
func (t AccessTier) IsRestricted() bool {
	return t == AccessFreemium
}

// UnmarshalJSON rejects unknown tier values. An empty string is accepted and
// left to the validator, since brands may omit their tier.
func (t *AccessTier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("access tier must be a string: %w", err)
	}

	tier := AccessTier(s)
	if tier != "" && !tier.IsValid() {
		return fmt.Errorf("unknown access tier %q", s)
	}

	*t = tier
	return nil
}
