package services

import (
	"encoding/json"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

// parseVoiceResponse converts a raw completion into a VoiceResponse.
// Voices that asked for structured fields may wrap the object in
// markdown fences, lead with narrative prose, or return the object
// alone with the narration inside it. A completion whose object fails
// to parse degrades to plain narrative rather than an error.
func parseVoiceResponse(content string, wantsFields bool) *turn.VoiceResponse {
	resp := &turn.VoiceResponse{
		Text:        strings.TrimSpace(content),
		ContentSafe: true,
	}
	if !wantsFields {
		return resp
	}

	text, fields := splitFields(content)
	if fields == nil {
		return resp
	}

	if narration, ok := fields["narration"].(string); ok {
		delete(fields, "narration")
		if text == "" {
			text = strings.TrimSpace(narration)
		}
	}

	resp.Text = text
	resp.Fields = fields
	if safe, ok := fields["content_safe"].(bool); ok {
		resp.ContentSafe = safe
	}
	return resp
}

// splitFields isolates the JSON object from a completion and returns
// the narrative prose that preceded it. Returns ("", nil) when no
// object parses.
func splitFields(raw string) (string, map[string]interface{}) {
	cleaned := strings.TrimSpace(raw)

	// Strategy 1: remove markdown code fences wrapping the whole reply.
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		endIdx := len(lines)
		for i := len(lines) - 1; i > 0; i-- {
			if strings.HasPrefix(lines[i], "```") {
				endIdx = i
				break
			}
		}
		if endIdx > 1 {
			cleaned = strings.Join(lines[1:endIdx], "\n")
		}
	}

	// Strategy 2: split mixed content at the first object brace.
	narrative := ""
	if !strings.HasPrefix(strings.TrimSpace(cleaned), "{") {
		jsonStart := strings.Index(cleaned, "{")
		if jsonStart < 0 {
			return "", nil
		}
		narrative = cleaned[:jsonStart]
		cleaned = cleaned[jsonStart:]
	}

	// Strategy 3: clean remaining artifacts from the object text.
	cleaned = strings.ReplaceAll(cleaned, "`", "")
	var objLines []string
	for _, line := range strings.Split(cleaned, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "json" || trimmed == "" {
			continue
		}
		objLines = append(objLines, line)
	}
	cleaned = strings.TrimSpace(strings.Join(objLines, "\n"))

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return "", nil
	}
	return trimFieldsMarker(narrative), fields
}

// trimFieldsMarker strips trailing fence and label lines that models
// leave between the narrative and the object.
func trimFieldsMarker(narrative string) string {
	lines := strings.Split(strings.TrimSpace(narrative), "\n")
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last == "json" || last == "```json" || last == "```" || last == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
