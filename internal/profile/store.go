package profile

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// MemoryStore is an in-memory profile Store.
type MemoryStore struct {
	profiles map[string]Profile
	writes   int
	mu       sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]Profile),
	}
}

func (m *MemoryStore) Get(_ context.Context, uid string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[uid]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	p.PaidClasses = maps.Clone(p.PaidClasses)
	return p, nil
}

func (m *MemoryStore) Create(_ context.Context, p Profile) (bool, error) {
	if p.UID == "" {
		return false, fmt.Errorf("uid is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[p.UID]; ok {
		return false, nil
	}
	p.PaidClasses = maps.Clone(p.PaidClasses)
	m.profiles[p.UID] = p
	m.writes++
	return true, nil
}

func (m *MemoryStore) SetRole(_ context.Context, uid, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[uid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	p.Role = role
	m.profiles[uid] = p
	m.writes++
	return nil
}

// SetPaid toggles a class entitlement, as the admin portal does.
func (m *MemoryStore) SetPaid(uid, class string, paid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[uid]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	p.PaidClasses = maps.Clone(p.PaidClasses)
	if p.PaidClasses == nil {
		p.PaidClasses = map[string]bool{}
	}
	p.PaidClasses[class] = paid
	m.profiles[uid] = p
	return nil
}

// Writes returns the number of successful creates and role updates.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
