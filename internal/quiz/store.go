package quiz

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists in-flight sessions between requests.
type SessionStore interface {
	Create(ctx context.Context, s *Session) (string, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory SessionStore. It hands out copies so callers
// never share state with the store.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	m.sessions[s.ID] = s.clone()
	return s.ID, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, s.ID)
	}
	m.sessions[s.ID] = s.clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (s *Session) clone() *Session {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	c.Answers = maps.Clone(s.Answers)
	if c.Answers == nil {
		c.Answers = map[string]string{}
	}
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	return &c
}
