package rawstore

import (
	"bytes"
	"io"
	"sort"
	"sync"

	"github.com/kitforge/gitkit/gitobj"
)

// MemoryRawStorage is a plain in-memory KV RawStorage (spec.md §4.1's
// "key-value layout"), used for tests and for backends that never touch
// disk. It is safe for concurrent use.
type MemoryRawStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryRawStorage returns an empty MemoryRawStorage.
func NewMemoryRawStorage() *MemoryRawStorage {
	return &MemoryRawStorage{data: make(map[string][]byte)}
}

// Store buffers r fully and records it under key. Re-storing an existing
// key is a no-op (spec.md §8 property 2).
func (s *MemoryRawStorage) Store(key string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		return nil
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return gitobj.WrapBackend(err)
	}
	s.data[key] = b
	return nil
}

// Load returns a reader over the stored bytes for key, or *gitobj.NotFoundError.
func (s *MemoryRawStorage) Load(key string, rng ReadRange) (io.ReadCloser, error) {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, gitobj.NewNotFoundError("raw storage key " + key)
	}

	start := rng.Offset
	if start > int64(len(b)) {
		start = int64(len(b))
	}
	end := int64(len(b))
	if rng.Length >= 0 && start+rng.Length < end {
		end = start + rng.Length
	}

	return io.NopCloser(bytes.NewReader(b[start:end])), nil
}

// Has reports whether key is present.
func (s *MemoryRawStorage) Has(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Remove deletes key if present.
func (s *MemoryRawStorage) Remove(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return false, nil
	}
	delete(s.data, key)
	return true, nil
}

// Size reports the byte length stored under key, or *gitobj.NotFoundError.
func (s *MemoryRawStorage) Size(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return 0, gitobj.NewNotFoundError("raw storage key " + key)
	}
	return int64(len(b)), nil
}

// Keys returns every stored key, sorted for determinism.
func (s *MemoryRawStorage) Keys() (KeyIterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return newSliceKeyIterator(keys), nil
}
