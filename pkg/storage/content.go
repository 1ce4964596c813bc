package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

// Static content (filesystem-backed, with compiled-in defaults). Each
// entity's ID comes from its filename; an ID inside the JSON is
// overridden.

func (r *RedisStorage) ListQuests(ctx context.Context) ([]*quest.Quest, error) {
	questsDir := filepath.Join(r.dataDir, "quests")

	if _, err := os.Stat(questsDir); os.IsNotExist(err) {
		r.logger.Debug("Quests directory does not exist, using defaults", "path", questsDir)
		return DefaultQuests(), nil
	}

	var quests []*quest.Quest
	err := filepath.WalkDir(questsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read quest file", "path", path, "error", err)
			return nil
		}

		var q quest.Quest
		if err := json.Unmarshal(file, &q); err != nil {
			r.logger.Warn("Failed to unmarshal quest file", "path", path, "error", err)
			return nil
		}

		q.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		quests = append(quests, &q)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk quests directory", "error", err)
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	if len(quests) == 0 {
		return DefaultQuests(), nil
	}

	sort.Slice(quests, func(i, j int) bool { return quests[i].ID < quests[j].ID })
	return quests, nil
}

func (r *RedisStorage) GetQuest(ctx context.Context, questID string) (*quest.Quest, error) {
	path := filepath.Join(r.dataDir, "quests", questID+".json")

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			for _, q := range DefaultQuests() {
				if q.ID == questID {
					return q, nil
				}
			}
			return nil, fmt.Errorf("quest not found: %s", questID)
		}
		return nil, fmt.Errorf("failed to read quest file: %w", err)
	}

	var q quest.Quest
	if err := json.Unmarshal(file, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest: %w", err)
	}
	q.ID = questID

	return &q, nil
}

func (r *RedisStorage) ListPersonas(ctx context.Context) ([]*voice.Persona, error) {
	personasDir := filepath.Join(r.dataDir, "personas")

	if _, err := os.Stat(personasDir); os.IsNotExist(err) {
		r.logger.Debug("Personas directory does not exist, using defaults", "path", personasDir)
		return voice.DefaultRoster().Personas(), nil
	}

	var personas []*voice.Persona
	err := filepath.WalkDir(personasDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read persona file", "path", path, "error", err)
			return nil
		}

		var p voice.Persona
		if err := json.Unmarshal(file, &p); err != nil {
			r.logger.Warn("Failed to unmarshal persona file", "path", path, "error", err)
			return nil
		}

		p.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		personas = append(personas, &p)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk personas directory", "error", err)
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}

	if len(personas) == 0 {
		return voice.DefaultRoster().Personas(), nil
	}

	sort.Slice(personas, func(i, j int) bool { return personas[i].ID < personas[j].ID })
	return personas, nil
}

func (r *RedisStorage) GetPersona(ctx context.Context, personaID string) (*voice.Persona, error) {
	path := filepath.Join(r.dataDir, "personas", personaID+".json")

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			for _, p := range voice.DefaultRoster().Personas() {
				if p.ID == personaID {
					return p, nil
				}
			}
			return nil, fmt.Errorf("persona not found: %s", personaID)
		}
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	var p voice.Persona
	if err := json.Unmarshal(file, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal persona: %w", err)
	}
	p.ID = personaID

	return &p, nil
}

func (r *RedisStorage) ListEnemies(ctx context.Context) ([]*quest.EnemyTemplate, error) {
	enemiesDir := filepath.Join(r.dataDir, "enemies")

	if _, err := os.Stat(enemiesDir); os.IsNotExist(err) {
		r.logger.Debug("Enemies directory does not exist, using defaults", "path", enemiesDir)
		return DefaultEnemies(), nil
	}

	var enemies []*quest.EnemyTemplate
	err := filepath.WalkDir(enemiesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read enemy template file", "path", path, "error", err)
			return nil
		}

		var e quest.EnemyTemplate
		if err := json.Unmarshal(file, &e); err != nil {
			r.logger.Warn("Failed to unmarshal enemy template file", "path", path, "error", err)
			return nil
		}

		e.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		enemies = append(enemies, &e)
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk enemies directory", "error", err)
		return nil, fmt.Errorf("failed to list enemies: %w", err)
	}

	if len(enemies) == 0 {
		return DefaultEnemies(), nil
	}

	sort.Slice(enemies, func(i, j int) bool { return enemies[i].ID < enemies[j].ID })
	return enemies, nil
}

func (r *RedisStorage) GetEnemy(ctx context.Context, templateID string) (*quest.EnemyTemplate, error) {
	path := filepath.Join(r.dataDir, "enemies", templateID+".json")

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			for _, e := range DefaultEnemies() {
				if e.ID == templateID {
					return e, nil
				}
			}
			return nil, fmt.Errorf("enemy template not found: %s", templateID)
		}
		return nil, fmt.Errorf("failed to read enemy template file: %w", err)
	}

	var e quest.EnemyTemplate
	if err := json.Unmarshal(file, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal enemy template: %w", err)
	}
	e.ID = templateID

	return &e, nil
}
