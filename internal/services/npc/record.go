// File: internal/services/npc/record.go
package npc

import (
	"encoding/json"
	"fmt"
)

// Action is one notable ability or attack an NPC can take.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Record is a complete stat block for a generated NPC. Field order matches
// the table command payload the VTT bridge expects.
type Record struct {
	Name              string   `json:"name"`
	Race              string   `json:"race"`
	Class             string   `json:"class"`
	Level             int      `json:"level"`
	Strength          int      `json:"strength"`
	Dexterity         int      `json:"dexterity"`
	Constitution      int      `json:"constitution"`
	Intelligence      int      `json:"intelligence"`
	Wisdom            int      `json:"wisdom"`
	Charisma          int      `json:"charisma"`
	Actions           []Action `json:"actions"`
	Background        string   `json:"background"`
	PersonalityTraits []string `json:"personality_traits"`
	Equipment         []string `json:"equipment"`
	Skills            []string `json:"skills"`
	Languages         []string `json:"languages"`
	Appearance        string   `json:"appearance"`
	ImageURL          string   `json:"image_url,omitempty"`
}

// requiredFields lists every key a generated record must carry, in the order
// they are reported when missing.
var requiredFields = []string{
	"name", "race", "class", "level",
	"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma",
	"actions", "background", "personality_traits", "equipment", "skills", "languages", "appearance",
}

// ValidationError pins a record defect to the field that caused it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid NPC record: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid NPC record: %s", e.Message)
}

// ParseRecord decodes and validates a model-produced JSON object into a
// Record. Every required field must be present, ability scores must fall in
// the 3-20 range, and each action must carry a name and description.
func ParseRecord(data []byte) (*Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Message: "invalid JSON format"}
	}
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, &ValidationError{Field: field, Message: "missing required field"}
		}
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("malformed field value: %v", err)}
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// Validate checks the semantic constraints on an already-decoded record.
func (r *Record) Validate() error {
	abilities := []struct {
		name  string
		score int
	}{
		{"strength", r.Strength},
		{"dexterity", r.Dexterity},
		{"constitution", r.Constitution},
		{"intelligence", r.Intelligence},
		{"wisdom", r.Wisdom},
		{"charisma", r.Charisma},
	}
	for _, a := range abilities {
		if a.score < 3 || a.score > 20 {
			return &ValidationError{Field: a.name, Message: fmt.Sprintf("ability score %d out of range 3-20", a.score)}
		}
	}
	if len(r.Actions) == 0 {
		return &ValidationError{Field: "actions", Message: "must be a non-empty list"}
	}
	for i, action := range r.Actions {
		if action.Name == "" || action.Description == "" {
			return &ValidationError{Field: fmt.Sprintf("actions[%d]", i), Message: "each action must have a name and description"}
		}
	}
	return nil
}

// Roll20Command renders the record as the chat command the VTT bridge pastes
// into the game client.
func (r *Record) Roll20Command() (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("could not encode NPC record: %w", err)
	}
	return "!create-npc " + string(payload), nil
}
