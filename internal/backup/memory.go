package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data    []byte
	created time.Time
}

// MemoryStore keeps backups in memory. Useful for tests and local development.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	folders map[string]struct{}
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[string]struct{}),
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) EnsureFolder(_ context.Context, folder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[strings.Trim(folder, "/")] = struct{}{}
	return nil
}

// HasFolder reports whether EnsureFolder created the folder.
func (m *MemoryStore) HasFolder(folder string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.folders[strings.Trim(folder, "/")]
	return ok
}

func (m *MemoryStore) Upload(_ context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, created: m.now()}
	return nil
}

func (m *MemoryStore) List(_ context.Context, folder string) ([]Object, error) {
	prefix := strings.Trim(folder, "/") + "/"

	m.mu.RLock()
	defer m.mu.RUnlock()
	objects := []Object{}
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) || strings.Contains(key[len(prefix):], "/") {
			continue
		}
		objects = append(objects, Object{
			Key:       key,
			Name:      baseName(key),
			Size:      int64(len(obj.data)),
			CreatedAt: obj.created,
		})
	}
	sortNewestFirst(objects)
	return objects, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Download(_ context.Context, key string, w io.Writer) error {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if _, err := io.Copy(w, bytes.NewReader(obj.data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
