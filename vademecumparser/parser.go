// Package vademecumparser reads the vademecum JSON document from a Source and
// turns it into validated entities.
package vademecumparser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/giygas/vademecum-api/interfaces"
	"github.com/giygas/vademecum-api/logging"
	"github.com/giygas/vademecum-api/vademecumparser/entities"
)

// Compile-time check to ensure Parser implements interfaces.Parser
var _ interfaces.Parser = (*Parser)(nil)

// Parser reads a document from its source and validates it
type Parser struct {
	source    interfaces.Source
	validator interfaces.DataValidator
}

// NewParser creates a parser over source
func NewParser(source interfaces.Source, validator interfaces.DataValidator) *Parser {
	return &Parser{source: source, validator: validator}
}

// SourceName returns the name of the underlying source
func (p *Parser) SourceName() string {
	return p.source.Name()
}

// ParseDocument opens the source and decodes it with Decode
func (p *Parser) ParseDocument(ctx context.Context) (*entities.Document, error) {
	start := time.Now()

	rc, err := p.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p.source.Name(), err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			logging.Warn("Failed to close dataset source", "source", p.source.Name(), "error", cerr)
		}
	}()

	doc, err := Decode(rc, p.validator)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.source.Name(), err)
	}

	logging.Debug("Dataset document parsed",
		"source", p.source.Name(),
		"compounds", len(doc.CompoundList()),
		"brands", len(doc.BrandList()),
		"duration_ms", time.Since(start).Milliseconds())

	return doc, nil
}

// Decode reads exactly one JSON document from r and validates it. Trailing
// data after the document is rejected.
func Decode(r io.Reader, validator interfaces.DataValidator) (*entities.Document, error) {
	dec := json.NewDecoder(r)

	var doc entities.Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, fmt.Errorf("malformed document: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("malformed document: unexpected data after the top-level object")
	}

	if err := validator.ValidateDocument(&doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	return &doc, nil
}
