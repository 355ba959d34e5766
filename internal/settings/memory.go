package settings

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a FragmentStore held in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	fragments map[string]Fragment
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fragments: make(map[string]Fragment),
		now:       time.Now,
	}
}

func (m *MemoryStore) GetMany(_ context.Context, paths []string) (map[string]Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Value, len(paths))
	for _, p := range paths {
		if f, ok := m.fragments[p]; ok {
			out[p] = f.Value
		}
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, path string) (Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.fragments[path]
	return f.Value, ok, nil
}

func (m *MemoryStore) Upsert(_ context.Context, path string, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	f, ok := m.fragments[path]
	if !ok {
		f = Fragment{Path: path, CreatedAt: now}
	}
	f.Value = value
	f.UpdatedAt = now
	m.fragments[path] = f
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.fragments, path)
	return nil
}

func (m *MemoryStore) ListSubtree(_ context.Context, prefix string) ([]Fragment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Fragment
	for p, f := range m.fragments {
		if p == prefix || strings.HasPrefix(p, prefix+pathSeparator) {
			out = append(out, f)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
