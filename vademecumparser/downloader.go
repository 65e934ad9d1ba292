package vademecumparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/giygas/vademecum-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// maxDocumentSize caps remote documents
const maxDocumentSize = 64 << 20

// HTTPSource downloads the document over HTTP(S)
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source that GETs url with the given timeout
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Name() string {
	return s.url
}

// Open downloads the whole body. Some exports arrive as ISO-8859-1, so a
// body that is not valid UTF-8 is transcoded before decoding.
func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", s.url, err)
	}
	req.Header.Set("Accept", "application/json")

	response, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", s.url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download %s: unexpected status %d", s.url, response.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", s.url, maxDocumentSize)
	}

	if utf8.Valid(body) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	logging.Debug("Dataset body is not UTF-8, decoding as ISO-8859-1", "url", s.url)
	return io.NopCloser(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(body))), nil
}
