package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements BlobStore in process memory. Used by tests and the
// "memory" storage backend.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
	now   func() time.Time
}

type memoryBlob struct {
	data       []byte
	etag       string
	modifiedAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memoryBlob), now: time.Now}
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]BlobInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BlobInfo, 0, len(m.blobs))
	for id, b := range m.blobs {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		out = append(out, BlobInfo{ID: id, URL: memoryURL(id), Size: int64(len(b.data)), ModifiedAt: b.modifiedAt, ETag: b.etag})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return append([]byte(nil), b.data...), nil
}

func (m *MemoryStore) Put(_ context.Context, id string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = memoryBlob{data: append([]byte(nil), data...), etag: ContentETag(data), modifiedAt: m.now().UTC()}
	return memoryURL(id), nil
}

func (m *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[id]
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return false, nil
	}
	delete(m.blobs, id)
	return true, nil
}

func (m *MemoryStore) Close() error { return nil }

func memoryURL(id string) string { return "memory://" + id }
