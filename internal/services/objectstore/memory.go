package objectstore

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Memory keeps objects in process memory
type Memory struct {
	urlBase string

	mu      sync.RWMutex
	objects map[string][]byte
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store serving URLs under urlBase
func NewMemory(urlBase string) *Memory {
	return &Memory{
		urlBase: urlBase,
		objects: make(map[string][]byte),
	}
}

func (m *Memory) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return &Object{FileName: key, FileURL: joinURL(m.urlBase, key)}, nil
}

func (m *Memory) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Keys returns every stored key
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
