package store

import (
	"context"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used by tests and local dry runs. It is
// safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

// Seed places an object in the store without going through Upload.
func (m *MemStore) Seed(remotePath string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey(remotePath)] = data
}

// List implements Store.
func (m *MemStore) List(ctx context.Context, channelURL, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channelKey := objectKey(channelURL)
	var names []string
	for key := range m.objects {
		if !strings.HasPrefix(key, channelKey+"/") {
			continue
		}
		base := path.Base(key)
		if strings.HasPrefix(base, prefix) {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Upload implements Store.
func (m *MemStore) Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := objectKey(remotePath)
	if _, exists := m.objects[key]; exists && !overwrite {
		return ErrAlreadyExists
	}
	m.objects[key] = data
	return nil
}

// Exists implements Store.
func (m *MemStore) Exists(ctx context.Context, remotePath string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectKey(remotePath)]
	return ok, nil
}

// Delete implements Store.
func (m *MemStore) Delete(ctx context.Context, remotePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := objectKey(remotePath)
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Keys returns the stored object keys, sorted. Test helper.
func (m *MemStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
