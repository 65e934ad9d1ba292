// Package validation provides data validation functionality for the vademecum API.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// Compiled once at package initialization
var (
	// Letters in any script, combining marks (decomposed accents), digits,
	// spaces and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\+',/()%]+$`)

	idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

	// strings.Contains is faster than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}
)

const (
	maxInputLength = 100
	maxInputWords  = 8
	maxNameLength  = 300
	maxReportIDs   = 10
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateCompound checks if a compound entity is valid
func (v *DataValidatorImpl) ValidateCompound(c *entities.Compound) error {
	if c == nil {
		return fmt.Errorf("compound is nil")
	}

	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("compound with empty id (name %q)", c.Name)
	}

	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("empty name for compound %s", c.ID)
	}

	if len(c.Name) > maxNameLength {
		return fmt.Errorf("name too long for compound %s: %d characters", c.ID, len(c.Name))
	}

	if !c.AccessTier.IsValid() {
		return fmt.Errorf("missing or invalid access tier for compound %s: %q", c.ID, c.AccessTier)
	}

	return nil
}

// ValidateBrand checks if a brand entity is valid
func (v *DataValidatorImpl) ValidateBrand(b *entities.Brand) error {
	if b == nil {
		return fmt.Errorf("brand is nil")
	}

	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("brand with empty id (name %q)", b.Name)
	}

	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("empty name for brand %s", b.ID)
	}

	if len(b.Name) > maxNameLength {
		return fmt.Errorf("name too long for brand %s: %d characters", b.ID, len(b.Name))
	}

	if strings.TrimSpace(b.CompoundID) == "" {
		return fmt.Errorf("empty compoundId for brand %s", b.ID)
	}

	if b.AccessTier != "" && !b.AccessTier.IsValid() {
		return fmt.Errorf("invalid access tier for brand %s: %q", b.ID, b.AccessTier)
	}

	return nil
}

// ValidateDocument requires both collections and validates every record
func (v *DataValidatorImpl) ValidateDocument(doc *entities.Document) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	if doc.Compounds == nil {
		return fmt.Errorf("document is missing the compounds collection")
	}

	if doc.Brands == nil {
		return fmt.Errorf("document is missing the brands collection")
	}

	for i := range *doc.Compounds {
		if err := v.ValidateCompound(&(*doc.Compounds)[i]); err != nil {
			return fmt.Errorf("compounds[%d]: %w", i, err)
		}
	}

	for i := range *doc.Brands {
		if err := v.ValidateBrand(&(*doc.Brands)[i]); err != nil {
			return fmt.Errorf("brands[%d]: %w", i, err)
		}
	}

	return nil
}

// ReportDataQuality collects non-fatal issues. Ids are trusted by the
// loader, so duplicates are reported here instead of rejected.
func (v *DataValidatorImpl) ReportDataQuality(compounds []entities.Compound, brands []entities.Brand) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateCompoundIDs: []string{},
		DuplicateBrandIDs:    []string{},
		DanglingBrandIDs:     []string{},
	}

	compoundIDs := make(map[string]bool, len(compounds))
	for _, c := range compounds {
		if compoundIDs[c.ID] {
			report.DuplicateCompoundIDs = append(report.DuplicateCompoundIDs, c.ID)
		}
		compoundIDs[c.ID] = true
	}

	brandIDs := make(map[string]bool, len(brands))
	withBrands := make(map[string]bool)
	for _, b := range brands {
		if brandIDs[b.ID] {
			report.DuplicateBrandIDs = append(report.DuplicateBrandIDs, b.ID)
		}
		brandIDs[b.ID] = true

		if !compoundIDs[b.CompoundID] {
			report.DanglingBrands++
			if len(report.DanglingBrandIDs) < maxReportIDs {
				report.DanglingBrandIDs = append(report.DanglingBrandIDs, b.ID)
			}
			continue
		}
		withBrands[b.CompoundID] = true
	}

	seen := make(map[string]bool, len(compounds))
	for _, c := range compounds {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		if !withBrands[c.ID] {
			report.CompoundsWithoutBrands++
		}
		for _, ref := range c.BrandIDs {
			if !brandIDs[ref] {
				report.UnknownBrandRefs++
			}
		}
	}

	return report
}

// ValidateInput validates free-text search input. Emptiness is not checked
// here: the handlers decide what an empty query means per endpoint.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if utf8.RuneCountInString(input) > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if strings.TrimSpace(input) != "" && !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and basic punctuation are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateID validates a record id such as PA-000001
func (v *DataValidatorImpl) ValidateID(input string) error {
	if input == "" {
		return fmt.Errorf("id cannot be empty")
	}

	if !idRegex.MatchString(input) {
		return fmt.Errorf("id contains invalid characters")
	}

	return nil
}

// hasExcessiveRepetition reports a rune repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	var last rune
	run := 0
	for _, r := range input {
		if r == last {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		last, run = r, 1
	}
	return false
}
