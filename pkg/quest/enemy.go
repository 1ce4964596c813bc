package quest

import (
	"fmt"
	"maps"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
)

// EnemyTemplate describes a spawnable enemy kind. Instances are spawned
// per encounter; the template itself is never mutated.
type EnemyTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	HP          int            `json:"hp"`
	Defense     int            `json:"defense"`
	DamageDice  string         `json:"damage_dice,omitempty"`
	Mods        map[string]int `json:"mods,omitempty"`
}

// Spawn instantiates n enemy combatants from the template. Instances past
// the first get numbered ids and names so narration can tell them apart.
func (t *EnemyTemplate) Spawn(n int) []*combat.Combatant {
	if n < 1 {
		n = 1
	}
	out := make([]*combat.Combatant, 0, n)
	for i := 1; i <= n; i++ {
		id := t.ID
		name := t.Name
		if i > 1 {
			id = fmt.Sprintf("%s-%d", t.ID, i)
			name = fmt.Sprintf("%s %d", t.Name, i)
		}
		var mods map[string]int
		if len(t.Mods) > 0 {
			mods = make(map[string]int, len(t.Mods))
			maps.Copy(mods, t.Mods)
		}
		out = append(out, &combat.Combatant{
			ID:         id,
			Name:       name,
			Kind:       combat.KindEnemy,
			HP:         t.HP,
			MaxHP:      t.HP,
			Defense:    t.Defense,
			DamageDice: t.DamageDice,
			Mods:       mods,
		})
	}
	return out
}
