package prompts

import (
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/pacing"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
	"github.com/jwebster45206/adventure-engine/pkg/voice"
)

func TestBuildSystemPrompt(t *testing.T) {
	p := &voice.Persona{
		ID:          "narrator",
		Name:        "The Narrator",
		Description: "Third-person storyteller.",
		Prompts:     []string{"Keep it vivid.", "End on a hook."},
	}

	got := BuildSystemPrompt(p)
	for _, want := range []string{
		"You are The Narrator",
		"Third-person storyteller.",
		"Keep it vivid.\nEnd on a hook.",
		"CRITICAL DIRECTIVES",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("System prompt missing %q", want)
		}
	}

	// A nil persona still produces a usable frame.
	got = BuildSystemPrompt(nil)
	if !strings.Contains(got, "You are a narrative voice") {
		t.Errorf("Nil persona frame unexpected: %q", got[:60])
	}
}

func TestGetContentRatingPrompt(t *testing.T) {
	tests := []struct {
		rating string
		want   string
	}{
		{session.RatingG, ContentRatingG},
		{session.RatingPG, ContentRatingPG},
		{session.RatingPG13, ContentRatingPG13},
		{session.RatingR, ContentRatingR},
		{"NC17", ContentRatingPG13}, // unknown defaults to PG-13
		{"", ContentRatingPG13},
	}

	for _, tc := range tests {
		if got := GetContentRatingPrompt(tc.rating); got != tc.want {
			t.Errorf("rating %q: wrong prompt returned", tc.rating)
		}
	}
}

func TestFieldsPrompt(t *testing.T) {
	checks := map[string]string{
		voice.Interviewer: "creation_complete",
		voice.Questgiver:  "quest_id",
		voice.Adjudicator: "quest_complete",
	}
	for id, marker := range checks {
		got := FieldsPrompt(id)
		if got == "" {
			t.Errorf("expected fields prompt for %s", id)
			continue
		}
		if !strings.Contains(got, marker) {
			t.Errorf("fields prompt for %s missing %q", id, marker)
		}
	}

	for _, id := range []string{voice.Narrator, voice.Jester, voice.Chronicler, "bard"} {
		if got := FieldsPrompt(id); got != "" {
			t.Errorf("expected no fields prompt for %s, got %q", id, got)
		}
	}
}

func TestDirectivePrompt(t *testing.T) {
	if got := DirectivePrompt(nil); got != "" {
		t.Errorf("nil directive should yield empty prompt, got %q", got)
	}

	d := &pacing.Directive{
		Phase:          pacing.StoryClimax,
		TurnsRemaining: 4,
		Urgency:        pacing.UrgencyHigh,
		Guidance:       "Bring the central conflict to a head.",
	}
	got := DirectivePrompt(d)
	for _, want := range []string{"climax", "Turns remaining: 4", "high", "central conflict"} {
		if !strings.Contains(got, want) {
			t.Errorf("directive prompt missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "ending when the moment is right") {
		t.Error("closure line should not appear before eligibility")
	}

	d.ClosureEligible = true
	if got = DirectivePrompt(d); !strings.Contains(got, "ending when the moment is right") {
		t.Error("closure line missing for eligible directive")
	}
}

func TestGetStatePrompt(t *testing.T) {
	if _, err := GetStatePrompt(nil); err == nil {
		t.Error("expected error for nil session")
	}

	s := session.New(50)
	s.Phase = session.PhaseExploration
	s.StoryPhase = pacing.StoryMidpoint
	s.AdventureTurn = 22

	msg, err := GetStatePrompt(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Role != turn.RoleSystem {
		t.Errorf("expected system role, got %s", msg.Role)
	}
	for _, want := range []string{"Adventure State:", `"phase":"exploration"`, `"story_phase":"midpoint"`, `"adventure_turn":22`} {
		if !strings.Contains(msg.Content, want) {
			t.Errorf("state prompt missing %q", want)
		}
	}
}
