package storage

import (
	"github.com/jwebster45206/adventure-engine/pkg/quest"
)

// DefaultQuests returns the compiled-in quest catalog, used when no
// data directory provides one.
func DefaultQuests() []*quest.Quest {
	return []*quest.Quest{
		{
			ID:        "wolves_of_the_vale",
			Title:     "Wolves of the Vale",
			Hook:      "The shepherds of Harrow Vale are losing flocks to wolves grown strange and bold. They offer what little coin they have to whoever thins the pack.",
			Objective: "Drive the wolves from the vale.",
			Stages: []string{
				"Tracks in the high pasture lead toward the pinewood",
				"A shepherd's boy saw the pack answer to a scarred matriarch",
				"The den lies beneath a lightning-split pine",
			},
			EnemyIDs: []string{"gray_wolf", "wolf_matriarch"},
		},
		{
			ID:        "bells_of_the_drowned_chapel",
			Title:     "Bells of the Drowned Chapel",
			Hook:      "On still nights the bells of the chapel under Milder Mere ring by themselves, and the fish have left the water. The ferryman wants to know why.",
			Objective: "Silence whatever rings the drowned bells.",
			Stages: []string{
				"The mere is lowest at the old causeway",
				"Something pale walks the chapel roof at dusk",
				"The bell rope is wound from grave linen",
			},
			EnemyIDs: []string{"bog_wight"},
		},
		{
			ID:        "the_salt_road_toll",
			Title:     "The Salt Road Toll",
			Hook:      "Bandits have strung a chain across the salt road and tax every cart at sword point. The merchants' guild pays well for an open road.",
			Objective: "Break the bandits' hold on the salt road.",
			Stages: []string{
				"Carters whisper that the toll keepers camp in a ruined mill",
				"The chain is lowered only for riders flying a red rag",
				"Their captain keeps the takings in a strongbox she never leaves",
			},
			EnemyIDs: []string{"toll_bandit", "bandit_captain"},
		},
	}
}

// DefaultEnemies returns the compiled-in enemy templates backing the
// default quests.
func DefaultEnemies() []*quest.EnemyTemplate {
	return []*quest.EnemyTemplate{
		{
			ID:          "gray_wolf",
			Name:        "Gray Wolf",
			Description: "A lean upland wolf, bolder than it should be.",
			HP:          9,
			Defense:     12,
			DamageDice:  "1d6",
			Mods:        map[string]int{"attack": 2, "dexterity": 2},
		},
		{
			ID:          "wolf_matriarch",
			Name:        "Wolf Matriarch",
			Description: "The scarred she-wolf the pack answers to.",
			HP:          18,
			Defense:     13,
			DamageDice:  "1d8",
			Mods:        map[string]int{"attack": 3, "dexterity": 2, "damage": 1},
		},
		{
			ID:          "bog_wight",
			Name:        "Bog Wight",
			Description: "A drowned parishioner that never stopped attending.",
			HP:          14,
			Defense:     11,
			DamageDice:  "1d6",
			Mods:        map[string]int{"attack": 2, "dexterity": -1},
		},
		{
			ID:          "toll_bandit",
			Name:        "Toll Bandit",
			Description: "A roadside cutthroat with a borrowed spear.",
			HP:          10,
			Defense:     12,
			DamageDice:  "1d6",
			Mods:        map[string]int{"attack": 2, "dexterity": 1},
		},
		{
			ID:          "bandit_captain",
			Name:        "Bandit Captain",
			Description: "She keeps the strongbox key on a cord around her neck.",
			HP:          22,
			Defense:     14,
			DamageDice:  "1d8",
			Mods:        map[string]int{"attack": 4, "dexterity": 2, "damage": 1},
		},
	}
}
