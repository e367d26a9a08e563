package scenario

import "github.com/jwebster45206/nightloop/pkg/state"

// NPC is a character definition: starting stats, persona for prompt
// assembly, and the ordered behavioral phase list.
type NPC struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Status state.NPCStatus `json:"status,omitempty"`
	Goal   string          `json:"goal,omitempty"`
	Stats  map[string]int  `json:"stats"`

	Persona Persona `json:"persona"`
	Phases  []Phase `json:"phases,omitempty"`
}

// Persona is the character sheet fed into dialogue and planning
// prompts.
type Persona struct {
	Summary       string   `json:"summary"`
	Values        []string `json:"values,omitempty"`
	Taboos        []string `json:"taboos,omitempty"`
	Triggers      Triggers `json:"triggers,omitempty"`
	Relationships []string `json:"relationships,omitempty"`
}

// Triggers are keywords that color how the day's events land on this
// NPC: plus entries read as welcome, minus entries as alarming.
type Triggers struct {
	Plus  []string `json:"plus,omitempty"`
	Minus []string `json:"minus,omitempty"`
}

// Phase is one entry in an NPC's ordered behavioral phase list. The
// transition condition uses the bare-identifier grammar resolved
// against the NPC's own stats; when it holds, the NPC advances to the
// next phase.
type Phase struct {
	ID            string          `json:"id"`
	BehaviorGuide string          `json:"behavior_guide,omitempty"`
	Transition    PhaseTransition `json:"transition,omitempty"`
}

type PhaseTransition struct {
	Condition string `json:"condition,omitempty"`
}
