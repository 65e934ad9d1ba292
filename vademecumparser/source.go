package vademecumparser

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giygas/vademecum-api/config"
	"github.com/giygas/vademecum-api/interfaces"
)

//go:embed sample/vademecum.json
var bundledDocument []byte

// FileSource reads the document from a local file
type FileSource struct {
	path string
}

// NewFileSource creates a source over a local JSON file
func NewFileSource(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	return f, nil
}

// EmbeddedSource serves the document bundled into the binary
type EmbeddedSource struct {
	data []byte
}

// NewEmbeddedSource returns the bundled sample dataset
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{data: bundledDocument}
}

// NewBytesSource serves an in-memory document, mostly for tests
func NewBytesSource(data []byte) *EmbeddedSource {
	return &EmbeddedSource{data: data}
}

func (s *EmbeddedSource) Name() string {
	return "embedded"
}

func (s *EmbeddedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// SourceFromConfig picks the dataset source: DATASET_PATH, then
// DATASET_URL, then the bundled document
func SourceFromConfig(cfg *config.Config) interfaces.Source {
	switch {
	case cfg.DatasetPath != "":
		return NewFileSource(cfg.DatasetPath)
	case cfg.DatasetURL != "":
		return NewHTTPSource(cfg.DatasetURL, cfg.DatasetTimeout)
	default:
		return NewEmbeddedSource()
	}
}
