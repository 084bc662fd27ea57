package mocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mcoot/drawphone/internal/dependencies/httpfetch"
)

// MockFetcher serves canned bodies keyed by URL
type MockFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  []string
}

// Ensure MockFetcher implements Fetcher
var _ httpfetch.Fetcher = (*MockFetcher)(nil)

// NewMockFetcher creates a new MockFetcher
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{bodies: make(map[string][]byte)}
}

// Set registers the body served for url
func (f *MockFetcher) Set(url string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = body
}

// Fetch returns the registered body or an error for unknown URLs
func (f *MockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("mock fetch: no body for %s", url)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// Calls returns every URL fetched so far
func (f *MockFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
