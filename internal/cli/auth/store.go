package auth

import (
	"sync"
)

// TokenStore persists the session credential set. Implementations write and
// clear all fields as one unit so a reader never observes a partial session.
type TokenStore interface {
	Save(creds *Credentials) error
	Load() (*Credentials, error)
	Clear() error
}

// MemoryStore keeps credentials in process memory. Used by tests and by
// sessions that should not outlive the process.
type MemoryStore struct {
	mu  sync.RWMutex
	rec map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(creds *Credentials) error {
	rec := creds.record()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	return nil
}

func (m *MemoryStore) Load() (*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return nil, ErrNoCredentials
	}
	return credentialsFromRecord(m.rec)
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
