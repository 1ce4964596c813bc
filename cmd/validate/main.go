// Command validate checks the JSON content files a deployment ships:
// quests, personas and enemy templates under a data directory. It is run
// in CI before content changes land.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/quest"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data-dir>\n", os.Args[0])
		os.Exit(1)
	}

	dataDir := os.Args[1]
	v := &ContentValidator{}

	if err := v.validateDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Content in %s is valid: %d quests, %d personas, %d enemies\n",
		dataDir, v.questCount, v.personaCount, v.enemyCount)
}

type ContentValidator struct {
	errors []string

	questCount   int
	personaCount int
	enemyCount   int

	questIDs map[string]bool
	enemyIDs map[string]bool
}

func (v *ContentValidator) validateDir(dataDir string) error {
	v.questIDs = make(map[string]bool)
	v.enemyIDs = make(map[string]bool)

	// Enemies before quests so quest enemy references can be checked.
	if err := v.validateFiles(filepath.Join(dataDir, "enemies"), v.validateEnemyFile, &v.enemyCount); err != nil {
		return err
	}
	if err := v.validateFiles(filepath.Join(dataDir, "quests"), v.validateQuestFile, &v.questCount); err != nil {
		return err
	}
	if err := v.validateFiles(filepath.Join(dataDir, "personas"), v.validatePersonaFile, &v.personaCount); err != nil {
		return err
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ContentValidator) validateFiles(dir string, validate func(string, []byte), count *int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Directories are optional; missing content falls back to
			// the compiled-in defaults.
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()
		if !isValidFilename(strings.TrimSuffix(name, ".json")) {
			v.addError(fmt.Sprintf("filename %q must be lowercase snake_case", name))
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if !json.Valid(data) {
			v.addError(fmt.Sprintf("%s contains invalid JSON", path))
			continue
		}

		validate(path, data)
		*count++
	}
	return nil
}

func (v *ContentValidator) validateQuestFile(path string, data []byte) {
	var q quest.Quest
	if err := strictDecode(data, &q); err != nil {
		v.addError(fmt.Sprintf("%s failed strict unmarshaling: %v", path, err))
		return
	}

	v.requireID(path, "quest", q.ID)
	if q.Title == "" {
		v.addError(fmt.Sprintf("%s: quest %q has no title", path, q.ID))
	}
	if q.Objective == "" {
		v.addError(fmt.Sprintf("%s: quest %q has no objective", path, q.ID))
	}
	for _, enemyID := range q.EnemyIDs {
		if !v.enemyIDs[enemyID] {
			v.addError(fmt.Sprintf("%s: quest %q references unknown enemy %q", path, q.ID, enemyID))
		}
	}
	for varName := range q.Vars {
		if !isValidID(varName) {
			v.addError(fmt.Sprintf("%s: quest %q var %q should be lowercase snake_case", path, q.ID, varName))
		}
	}
	if q.ID != "" {
		if v.questIDs[q.ID] {
			v.addError(fmt.Sprintf("%s: duplicate quest ID %q", path, q.ID))
		}
		v.questIDs[q.ID] = true
	}
}

func (v *ContentValidator) validatePersonaFile(path string, data []byte) {
	var p voice.Persona
	if err := strictDecode(data, &p); err != nil {
		v.addError(fmt.Sprintf("%s failed strict unmarshaling: %v", path, err))
		return
	}

	v.requireID(path, "persona", p.ID)
	if p.Name == "" {
		v.addError(fmt.Sprintf("%s: persona %q has no name", path, p.ID))
	}
	if p.Fallback == "" {
		v.addError(fmt.Sprintf("%s: persona %q has no fallback line", path, p.ID))
	}
}

func (v *ContentValidator) validateEnemyFile(path string, data []byte) {
	var e quest.EnemyTemplate
	if err := strictDecode(data, &e); err != nil {
		v.addError(fmt.Sprintf("%s failed strict unmarshaling: %v", path, err))
		return
	}

	v.requireID(path, "enemy", e.ID)
	if e.HP <= 0 {
		v.addError(fmt.Sprintf("%s: enemy %q must have positive HP", path, e.ID))
	}
	if e.Defense <= 0 {
		v.addError(fmt.Sprintf("%s: enemy %q must have positive defense", path, e.ID))
	}
	if e.ID != "" {
		v.enemyIDs[e.ID] = true
	}
}

func (v *ContentValidator) requireID(path, kind, id string) {
	if id == "" {
		v.addError(fmt.Sprintf("%s: %s has no ID", path, kind))
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s: %s ID %q should be lowercase snake_case", path, kind, id))
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func strictDecode(data []byte, out interface{}) error {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidFilename(name string) bool {
	// Allow 'x.' prefix for experimental content.
	name = strings.TrimPrefix(name, "x.")
	return validIDRegex.MatchString(name)
}
