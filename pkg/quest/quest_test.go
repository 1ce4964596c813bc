package quest

import (
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

func TestBuildPrompt(t *testing.T) {
	q := &Quest{
		ID:        "wreck-of-the-meridian",
		Title:     "The Wreck of the Meridian",
		Hook:      "A merchant ship ran aground with its cargo unclaimed.",
		Objective: "Recover the captain's strongbox.",
		Stages:    []string{"Reach the wreck", "Deal with the scavengers"},
	}

	got := q.BuildPrompt()
	for _, want := range []string{
		"ACTIVE QUEST: The Wreck of the Meridian",
		"Objective: Recover the captain's strongbox.",
		"- Reach the wreck",
		"- Deal with the scavengers",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}

	var nilQuest *Quest
	if nilQuest.BuildPrompt() != "" {
		t.Error("nil quest should produce an empty prompt")
	}
}

func TestSpawn(t *testing.T) {
	tmpl := &EnemyTemplate{
		ID:         "goblin",
		Name:       "Goblin",
		HP:         7,
		Defense:    13,
		DamageDice: "1d6",
		Mods:       map[string]int{"attack": 3, "dexterity": 1},
	}

	spawned := tmpl.Spawn(3)
	if len(spawned) != 3 {
		t.Fatalf("spawned %d, want 3", len(spawned))
	}

	wantIDs := []string{"goblin", "goblin-2", "goblin-3"}
	wantNames := []string{"Goblin", "Goblin 2", "Goblin 3"}
	for i, c := range spawned {
		if c.ID != wantIDs[i] {
			t.Errorf("instance %d id = %q, want %q", i, c.ID, wantIDs[i])
		}
		if c.Name != wantNames[i] {
			t.Errorf("instance %d name = %q, want %q", i, c.Name, wantNames[i])
		}
		if c.Kind != combat.KindEnemy {
			t.Errorf("instance %d kind = %q, want enemy", i, c.Kind)
		}
		if c.HP != 7 || c.MaxHP != 7 {
			t.Errorf("instance %d hp = %d/%d, want 7/7", i, c.HP, c.MaxHP)
		}
	}

	// Instance mods are copies; wounding one instance or tweaking its
	// mods must not touch the template.
	spawned[0].Mods["attack"] = 99
	spawned[0].HP = 1
	if tmpl.Mods["attack"] != 3 {
		t.Error("template mods mutated through a spawned instance")
	}
	if spawned[1].Mods["attack"] != 3 || spawned[1].HP != 7 {
		t.Error("instances should not share state")
	}

	if got := tmpl.Spawn(0); len(got) != 1 {
		t.Errorf("Spawn(0) produced %d instances, want 1", len(got))
	}
}
