package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository implements both storage ports in process memory.
// It is meant for tests and single-process development.
type MemoryRepository struct {
	mu      sync.Mutex
	secret  string
	revoked map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{revoked: make(map[string]time.Time)}
}

func (m *MemoryRepository) GetSecret(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secret, m.secret != "", nil
}

func (m *MemoryRepository) InsertSecretIfAbsent(_ context.Context, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.secret == "" {
		m.secret = value
	}
	return m.secret, nil
}

// ClearSecret simulates an operator deleting the persisted secret.
func (m *MemoryRepository) ClearSecret() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = ""
}

func (m *MemoryRepository) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = expiresAt
	return nil
}

func (m *MemoryRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *MemoryRepository) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for jti, expiresAt := range m.revoked {
		if now.After(expiresAt) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n, nil
}

// Len reports the number of ledger entries.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.revoked)
}
