package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	mediaapp "github.com/LautaroPairuna/micaela-martinez-sub001/internal/application/media"
	"github.com/LautaroPairuna/micaela-martinez-sub001/internal/domain/shared"
)

var _ mediaapp.ObjectStore = (*MemoryStorage)(nil)

type memoryObject struct {
	data    []byte
	modTime time.Time
}

// MemoryStorage keeps objects in memory. Used by tests and local development.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string]memoryObject{}, now: time.Now}
}

// Put stores a copy of body
func (s *MemoryStorage) Put(_ context.Context, key string, body io.ReadSeeker, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: data, modTime: s.now()}
	return nil
}

// Stat returns the size and modification time of key
func (s *MemoryStorage) Stat(_ context.Context, key string) (mediaapp.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return mediaapp.ObjectInfo{}, shared.ErrNotFound.WithDetails("object %s", key)
	}
	return mediaapp.ObjectInfo{Size: int64(len(obj.data)), ModTime: obj.modTime}, nil
}

// Open returns a reader over a byte range of key
func (s *MemoryStorage) Open(_ context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound.WithDetails("object %s", key)
	}
	size := int64(len(obj.data))
	if offset > size {
		offset = size
	}
	end := size
	if length >= 0 && offset+length < size {
		end = offset + length
	}
	return io.NopCloser(bytes.NewReader(obj.data[offset:end])), nil
}

// Delete removes key
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Has reports whether key exists
func (s *MemoryStorage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
