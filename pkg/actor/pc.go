package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

// Stats5e represents the six core D&D 5e ability scores
type Stats5e struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// ToAttributes converts Stats5e to a map for d20.Actor compatibility
func (s *Stats5e) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// AbilityMod converts an ability score to its modifier, rounding down.
func AbilityMod(score int) int {
	d := score - 10
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}

// PCSpec is the serializable specification for a Player Character
type PCSpec struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Class           string         `json:"class,omitempty"`
	Level           int            `json:"level,omitempty"`
	Race            string         `json:"race,omitempty"`
	Pronouns        string         `json:"pronouns,omitempty"`
	Description     string         `json:"description,omitempty"`
	Background      string         `json:"background,omitempty"`
	Stats           Stats5e        `json:"stats,omitempty"`
	HP              int            `json:"hp,omitempty"` // Current HP (for serialization)
	MaxHP           int            `json:"max_hp,omitempty"`
	AC              int            `json:"ac,omitempty"`
	DamageDice      string         `json:"damage_dice,omitempty"` // weapon damage, default 1d6
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	Attributes      map[string]int `json:"attributes,omitempty"` // Skills, proficiencies, etc.
	Inventory       []string       `json:"inventory,omitempty"`
}

// PC is the runtime representation of a Player Character
type PC struct {
	Spec  *PCSpec
	Actor *d20.Actor // Built at runtime from PCSpec
}

// NewPCFromSpec creates a PC from a PCSpec
// This is the preferred way to construct PCs after loading from storage
func NewPCFromSpec(spec *PCSpec) (*PC, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	actor, err := buildActor(spec)
	if err != nil {
		return nil, err
	}
	return &PC{Spec: spec, Actor: actor}, nil
}

// buildActor constructs the d20.Actor backing a PC from its spec.
func buildActor(spec *PCSpec) (*d20.Actor, error) {
	// Core stats plus additional attributes (skills, proficiencies)
	allAttrs := spec.Stats.ToAttributes()
	maps.Copy(allAttrs, spec.Attributes)

	actor, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs).
		WithCombatModifiers(spec.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// Set current HP if different from max
	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return actor, nil
}

// Combatant derives the player's combat form from the live actor state.
// Attack and damage ride on strength; initiative rides on dexterity.
func (pc *PC) Combatant() *combat.Combatant {
	strMod := 0
	dexMod := 0
	if v, ok := pc.Actor.Attribute("strength"); ok {
		strMod = AbilityMod(v)
	}
	if v, ok := pc.Actor.Attribute("dexterity"); ok {
		dexMod = AbilityMod(v)
	}
	damageDice := pc.Spec.DamageDice
	if damageDice == "" {
		damageDice = "1d6"
	}
	return &combat.Combatant{
		ID:         pc.Spec.ID,
		Name:       pc.Spec.Name,
		Kind:       combat.KindPlayer,
		HP:         pc.Actor.HP(),
		MaxHP:      pc.Actor.MaxHP(),
		Defense:    pc.Actor.AC(),
		DamageDice: damageDice,
		Mods: map[string]int{
			"attack":    strMod + pc.Spec.CombatModifiers["attack"],
			"damage":    strMod + pc.Spec.CombatModifiers["damage"],
			"dexterity": dexMod,
		},
	}
}

// ApplyCombatResult writes an encounter's outcome back onto the actor.
func (pc *PC) ApplyCombatResult(c *combat.Combatant) error {
	if c == nil {
		return nil
	}
	if err := pc.Actor.SetHP(c.HP); err != nil {
		return fmt.Errorf("failed to apply combat HP: %w", err)
	}
	pc.Spec.HP = c.HP
	return nil
}

// MarshalJSON converts PC back to PCSpec format for API responses
// Reads current runtime state from the Actor
func (pc *PC) MarshalJSON() ([]byte, error) {
	if pc == nil {
		return []byte("null"), nil
	}
	if pc.Actor == nil {
		return json.Marshal(pc.Spec)
	}

	getAttr := func(key string) int {
		if val, ok := pc.Actor.Attribute(key); ok {
			return val
		}
		return 0
	}

	type PCResponse struct {
		ID              string         `json:"id"`
		Name            string         `json:"name"`
		Class           string         `json:"class"`
		Level           int            `json:"level"`
		Race            string         `json:"race"`
		Pronouns        string         `json:"pronouns,omitempty"`
		Description     string         `json:"description,omitempty"`
		Background      string         `json:"background,omitempty"`
		Stats           Stats5e        `json:"stats"`
		HP              int            `json:"hp"`
		MaxHP           int            `json:"max_hp"`
		AC              int            `json:"ac"`
		DamageDice      string         `json:"damage_dice,omitempty"`
		CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
		Attributes      map[string]int `json:"attributes,omitempty"`
		Inventory       []string       `json:"inventory,omitempty"`
	}

	resp := PCResponse{
		ID:          pc.Spec.ID,
		Name:        pc.Spec.Name,
		Class:       pc.Spec.Class,
		Level:       pc.Spec.Level,
		Race:        pc.Spec.Race,
		Pronouns:    pc.Spec.Pronouns,
		Description: pc.Spec.Description,
		Background:  pc.Spec.Background,
		DamageDice:  pc.Spec.DamageDice,
		Inventory:   pc.Spec.Inventory,
	}

	resp.HP = pc.Actor.HP()
	resp.MaxHP = pc.Actor.MaxHP()
	resp.AC = pc.Actor.AC()

	resp.Stats = Stats5e{
		Strength:     getAttr("strength"),
		Dexterity:    getAttr("dexterity"),
		Constitution: getAttr("constitution"),
		Intelligence: getAttr("intelligence"),
		Wisdom:       getAttr("wisdom"),
		Charisma:     getAttr("charisma"),
	}

	resp.CombatModifiers = make(map[string]int)
	for _, mod := range pc.Actor.GetCombatModifiers() {
		resp.CombatModifiers[mod.Reason] = mod.Value
	}

	// Non-core attributes only; core stats already live in Stats
	resp.Attributes = make(map[string]int)
	coreStats := map[string]bool{
		"strength": true, "dexterity": true, "constitution": true,
		"intelligence": true, "wisdom": true, "charisma": true,
	}
	for key := range pc.Spec.Attributes {
		if !coreStats[key] {
			if val, ok := pc.Actor.Attribute(key); ok {
				resp.Attributes[key] = val
			}
		}
	}

	return json.Marshal(resp)
}

// UnmarshalJSON reconstructs a PC from JSON and rebuilds its Actor
func (pc *PC) UnmarshalJSON(data []byte) error {
	var spec PCSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal PC spec: %w", err)
	}
	pc.Spec = &spec

	actor, err := buildActor(&spec)
	if err != nil {
		return err
	}
	pc.Actor = actor
	return nil
}

// BuildPrompt constructs the player character section for the system prompt
// Returns an empty string if pc is nil
//
// Example output:
// The player is controlling: Sir Galahad (he/him), Level 5 Paladin. A brave knight of the Round Table.
func BuildPrompt(pc *PC) string {
	if pc == nil {
		return ""
	}
	sb := strings.Builder{}
	sb.WriteString("REMEMBER: In this game, the player is controlling: ")
	sb.WriteString(pc.Spec.Name)
	if pc.Spec.Pronouns != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", pc.Spec.Pronouns))
	}
	if pc.Spec.Level > 0 || pc.Spec.Class != "" || pc.Spec.Race != "" {
		summaryParts := []string{}
		if pc.Spec.Level > 0 {
			summaryParts = append(summaryParts, fmt.Sprintf("Level %d", pc.Spec.Level))
		}
		if pc.Spec.Race != "" {
			summaryParts = append(summaryParts, pc.Spec.Race)
		}
		if pc.Spec.Class != "" {
			summaryParts = append(summaryParts, pc.Spec.Class)
		}
		sb.WriteString(", " + strings.Join(summaryParts, " "))
	}
	if pc.Spec.Description != "" {
		sb.WriteString(". " + pc.Spec.Description)
	}
	return sb.String()
}
