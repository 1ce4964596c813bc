package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// Mock is an in-memory implementation of Storage for testing.
type Mock struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*session.Session
	quests    map[string]*quest.Quest
	personas  map[string]*voice.Persona
	enemies   map[string]*quest.EnemyTemplate
	pingError error
	saveError error
	loadError error
}

// Ensure Mock implements Storage interface
var _ Storage = (*Mock)(nil)

// NewMock creates an empty mock storage.
func NewMock() *Mock {
	return &Mock{
		sessions: make(map[uuid.UUID]*session.Session),
		quests:   make(map[string]*quest.Quest),
		personas: make(map[string]*voice.Persona),
		enemies:  make(map[string]*quest.EnemyTemplate),
	}
}

// SetPingError configures the mock to fail on ping with the given error.
// Pass nil to restore success.
func (m *Mock) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures SaveSession to fail with the given error.
func (m *Mock) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError configures LoadSession to fail with the given error.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// Ping mocks storage ping
func (m *Mock) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *Mock) Close() error {
	return nil
}

// SaveSession stores a copy-by-reference of the session.
func (m *Mock) SaveSession(ctx context.Context, s *session.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[s.ID] = s
	return nil
}

// LoadSession returns the stored session, or (nil, nil) when absent.
func (m *Mock) LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	s, exists := m.sessions[id]
	if !exists {
		return nil, nil
	}
	return s, nil
}

// DeleteSession removes the session if present.
func (m *Mock) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ListQuests returns all quests in the mock.
func (m *Mock) ListQuests(ctx context.Context) ([]*quest.Quest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*quest.Quest, 0, len(m.quests))
	for _, q := range m.quests {
		result = append(result, q)
	}
	return result, nil
}

// GetQuest returns a quest by ID.
func (m *Mock) GetQuest(ctx context.Context, id string) (*quest.Quest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, exists := m.quests[id]
	if !exists {
		return nil, fmt.Errorf("quest not found: %s", id)
	}
	return q, nil
}

// AddQuest adds a quest to the mock storage (for testing)
func (m *Mock) AddQuest(q *quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests[q.ID] = q
}

// ListPersonas returns all personas in the mock.
func (m *Mock) ListPersonas(ctx context.Context) ([]*voice.Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*voice.Persona, 0, len(m.personas))
	for _, p := range m.personas {
		result = append(result, p)
	}
	return result, nil
}

// GetPersona returns a persona by ID.
func (m *Mock) GetPersona(ctx context.Context, id string) (*voice.Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.personas[id]
	if !exists {
		return nil, fmt.Errorf("persona not found: %s", id)
	}
	return p, nil
}

// AddPersona adds a persona to the mock storage (for testing)
func (m *Mock) AddPersona(p *voice.Persona) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.personas[p.ID] = p
}

// ListEnemies returns all enemy templates in the mock.
func (m *Mock) ListEnemies(ctx context.Context) ([]*quest.EnemyTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*quest.EnemyTemplate, 0, len(m.enemies))
	for _, e := range m.enemies {
		result = append(result, e)
	}
	return result, nil
}

// GetEnemy returns an enemy template by ID.
func (m *Mock) GetEnemy(ctx context.Context, id string) (*quest.EnemyTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.enemies[id]
	if !exists {
		return nil, fmt.Errorf("enemy template not found: %s", id)
	}
	return e, nil
}

// AddEnemy adds an enemy template to the mock storage (for testing)
func (m *Mock) AddEnemy(e *quest.EnemyTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enemies[e.ID] = e
}
