package voice

import "fmt"

// Roster is the set of personas available to a deployment. Lookup is by
// ID; listing preserves registration order.
type Roster struct {
	personas map[string]*Persona
	order    []string
}

// NewRoster builds a roster from the given personas. IDs must be unique
// and non-empty.
func NewRoster(personas ...*Persona) (*Roster, error) {
	r := &Roster{personas: make(map[string]*Persona)}
	for _, p := range personas {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a persona, replacing any existing persona with the
// same ID.
func (r *Roster) Add(p *Persona) error {
	if p == nil {
		return fmt.Errorf("persona is nil")
	}
	if p.ID == "" {
		return fmt.Errorf("persona %q has no ID", p.Name)
	}
	if _, exists := r.personas[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.personas[p.ID] = p
	return nil
}

// Get returns the persona with the given ID.
func (r *Roster) Get(id string) (*Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return nil, fmt.Errorf("no persona with ID %q", id)
	}
	return p, nil
}

// Has reports whether the roster carries the given ID.
func (r *Roster) Has(id string) bool {
	_, ok := r.personas[id]
	return ok
}

// IDs returns all persona IDs in registration order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Personas returns all personas in registration order.
func (r *Roster) Personas() []*Persona {
	out := make([]*Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.personas[id])
	}
	return out
}

// DefaultRoster returns the built-in six-voice roster. Deployments may
// override individual personas from disk; the IDs stay stable.
func DefaultRoster() *Roster {
	r := &Roster{personas: make(map[string]*Persona)}
	for _, p := range []*Persona{
		{
			ID:          Narrator,
			Name:        "The Narrator",
			Description: "Third-person storyteller who renders the world and its consequences.",
			Prompts: []string{
				"Describe the scene and its consequences in vivid third person.",
				"Weave any earlier speakers' contributions into one coherent moment.",
				"End on something the player can act on.",
			},
			Fallback: "The moment hangs unresolved, and the world seems to hold its breath, waiting for your next move.",
		},
		{
			ID:          Adjudicator,
			Name:        "The Adjudicator",
			Description: "Rules voice that narrates dice, checks and combat mechanics.",
			Prompts: []string{
				"Speak with the dry relish of someone who loves dice.",
				"State what was rolled and what it means before any flourish.",
			},
			Fallback:    "The dice clatter across the table, but their verdict is muddled. Call it a near thing and press on.",
			WantsFields: true,
		},
		{
			ID:          Jester,
			Name:        "The Jester",
			Description: "Comic relief who undercuts tension with one sharp aside.",
			Prompts: []string{
				"One short aside only. Wry, never cruel, never longer than two sentences.",
				"Mock the situation, not the player.",
			},
			Fallback: "Somewhere nearby, a joke dies unspoken. Even the fool knows when to hold his tongue.",
		},
		{
			ID:          Interviewer,
			Name:        "The Interviewer",
			Description: "Guides character creation with pointed questions.",
			Prompts: []string{
				"Ask one question at a time about who the hero is.",
				"Reflect the player's answers back as a sketch taking shape.",
			},
			Fallback:    "Take a breath and picture your hero. Tell me their name, and what they are good at, whenever you are ready.",
			WantsFields: true,
		},
		{
			ID:          Questgiver,
			Name:        "The Questgiver",
			Description: "Offers hooks and bargains; presents the adventures on the table.",
			Prompts: []string{
				"Present each quest as a rumor with a hook, a danger and a reward.",
				"Never decide for the player. Lay the choices out and wait.",
			},
			Fallback:    "Rumors swirl through the room, but none take clear shape just yet. Ask again, and listen closely.",
			WantsFields: true,
		},
		{
			ID:          Chronicler,
			Name:        "The Chronicler",
			Description: "Closes the adventure, recording what was done and what it cost.",
			Prompts: []string{
				"Look back over the whole adventure and name what mattered.",
				"Give the hero the ending the story earned, then let it rest.",
			},
			Fallback: "And so the tale finds its quiet end, recorded faithfully in the annals, its hero walking on beyond the page.",
		},
	} {
		r.personas[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}
