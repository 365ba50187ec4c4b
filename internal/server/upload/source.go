// Package upload normalizes the three accepted content shapes into one byte
// stream and runs the create-or-replace upload against a chosen account.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/drivepool/drivepool/internal/common"
)

// Source is one of the accepted content origins. Open yields the normalized
// byte stream; the caller owns closing it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// URLSource fetches the content from a remote URL.
type URLSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

// Open issues the GET. A non-2xx response, an unreachable host, or a stall
// past Timeout all surface as common.ErrSourceUnreachable.
func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: s.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %q: %w", s.URL, common.ErrSourceUnreachable)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", s.URL, common.ErrSourceUnreachable)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %q: status %s: %w", s.URL, resp.Status, common.ErrSourceUnreachable)
	}
	return resp.Body, nil
}

// StreamSource wraps an already-open stream, e.g. a multipart file part.
type StreamSource struct {
	Reader io.ReadCloser
}

func (s StreamSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.Reader == nil {
		return nil, fmt.Errorf("empty stream: %w", common.ErrSourceUnreachable)
	}
	return s.Reader, nil
}

// Base64Source decodes an inline base64 payload.
type Base64Source struct {
	Data string
}

func (s Base64Source) Open(ctx context.Context) (io.ReadCloser, error) {
	decoded, err := base64.StdEncoding.DecodeString(s.Data)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", common.ErrSourceUnreachable)
	}
	return io.NopCloser(bytes.NewReader(decoded)), nil
}

// FileNameFromURL derives a file name from the final path segment of a URL.
// Used when the caller supplies a fileUrl but no fileName.
func FileNameFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("cannot derive file name from %q: %w", raw, common.ErrSourceUnreachable)
	}
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		return "", fmt.Errorf("cannot derive file name from %q: %w", raw, common.ErrSourceUnreachable)
	}
	return name, nil
}
