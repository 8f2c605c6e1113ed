// Package memory implements an in-memory blob store for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// BlobStore keeps objects in a map keyed by path.
type BlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// New creates an empty in-memory blob store.
func New() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

// Put stores data under path and returns a mem:// URI.
func (s *BlobStore) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = append([]byte{}, data...)
	return "mem://" + path, nil
}

// Get returns a stored object, or false when absent.
func (s *BlobStore) Get(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return data, ok
}

// Len reports how many objects are stored.
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
