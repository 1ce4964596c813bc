package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// Storage defines a unified interface for all storage operations.
// Sessions persist in Redis; quests, personas and enemy templates are
// read-mostly content loaded from the data directory, with compiled-in
// defaults behind them.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed). Load returns (nil, nil) when the
	// session does not exist.
	SaveSession(ctx context.Context, s *session.Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*session.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Quest content
	ListQuests(ctx context.Context) ([]*quest.Quest, error)
	GetQuest(ctx context.Context, id string) (*quest.Quest, error)

	// Voice personas
	ListPersonas(ctx context.Context) ([]*voice.Persona, error)
	GetPersona(ctx context.Context, id string) (*voice.Persona, error)

	// Enemy templates for combat spawning
	ListEnemies(ctx context.Context) ([]*quest.EnemyTemplate, error)
	GetEnemy(ctx context.Context, id string) (*quest.EnemyTemplate, error)
}
