// Package scenario defines the asset schema consumed by the engine and
// the read-only accessors other components use to query it.
package scenario

import (
	"github.com/jwebster45206/nightloop/pkg/state"
)

// Assets is one scenario's full declarative content, loaded from JSON.
type Assets struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Genre     string `json:"genre,omitempty"`
	Tone      string `json:"tone,omitempty"`
	TurnLimit int    `json:"turn_limit"`

	OpeningScene     string   `json:"opening_scene,omitempty"`
	OpeningInventory []string `json:"opening_inventory,omitempty"`

	StateSchema StateSchema `json:"state_schema"`
	NPCs        []NPC       `json:"npcs"`
	Items       []Item      `json:"items,omitempty"`
	Endings     []Ending    `json:"endings,omitempty"`
	Locks       []Lock      `json:"locks,omitempty"`
	MemoryRules MemoryRules `json:"memory_rules,omitempty"`

	VictoryConditions []string `json:"victory_conditions,omitempty"`
	FailureConditions []string `json:"failure_conditions,omitempty"`
}

// StateSchema declares the scenario's vars and flags with defaults and
// optional numeric bounds.
type StateSchema struct {
	Vars  map[string]VarSpec  `json:"vars,omitempty"`
	Flags map[string]FlagSpec `json:"flags,omitempty"`
}

type VarSpec struct {
	Default state.Value `json:"default"`
	Min     *float64    `json:"min,omitempty"`
	Max     *float64    `json:"max,omitempty"`
}

type FlagSpec struct {
	Default state.Value `json:"default"`
}

// Ending gates a scenario conclusion. List order is priority: the
// first matching ending wins.
type Ending struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Condition      string  `json:"condition"`
	EpiloguePrompt string  `json:"epilogue_prompt,omitempty"`
	OnEnterEvents  []Event `json:"on_enter_events,omitempty"`
}

// Event is a small declarative state write attached to an ending.
type Event struct {
	Type  string      `json:"type"` // flag_set or var_set
	Key   string      `json:"key"`
	Value state.Value `json:"value"`
}

// Lock is an information gate: when its condition holds, the secret is
// revealed to the NPCs on its allow list.
type Lock struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	UnlockCondition string     `json:"unlock_condition"`
	Access          LockAccess `json:"access"`
	RevealTrigger   string     `json:"reveal_trigger,omitempty"`
}

type LockAccess struct {
	AllowedNPCs []string `json:"allowed_npcs,omitempty"`
}

// MemoryRules holds the intent rule table.
type MemoryRules struct {
	RewriteRules []RewriteRule `json:"rewrite_rules,omitempty"`
}

// RewriteRule applies effects when the player's classified intent for
// the turn matches its when clause (`intent == '<x>'`).
type RewriteRule struct {
	ID      string       `json:"id"`
	When    string       `json:"when"`
	Effects []EffectSpec `json:"effects"`
}

// EffectSpec is one declarative effect in an item action, rewrite rule
// or lock. The compiler in pkg/rules turns lists of these into deltas.
type EffectSpec struct {
	Type     string      `json:"type"`
	Target   string      `json:"target,omitempty"`
	Value    state.Value `json:"value,omitempty"`
	Duration int         `json:"duration,omitempty"`
	Priority int         `json:"priority,omitempty"`
	EndingID string      `json:"ending_id,omitempty"`
	EventID  string      `json:"event_id,omitempty"`
	Scene    string      `json:"scene,omitempty"`
}

// NPCByID returns the NPC definition, or nil.
func (a *Assets) NPCByID(id string) *NPC {
	for i := range a.NPCs {
		if a.NPCs[i].ID == id {
			return &a.NPCs[i]
		}
	}
	return nil
}

// ItemByID returns the item definition, or nil.
func (a *Assets) ItemByID(id string) *Item {
	for i := range a.Items {
		if a.Items[i].ID == id {
			return &a.Items[i]
		}
	}
	return nil
}

// AllNPCIDs returns NPC ids in authored order.
func (a *Assets) AllNPCIDs() []string {
	ids := make([]string, len(a.NPCs))
	for i := range a.NPCs {
		ids[i] = a.NPCs[i].ID
	}
	return ids
}

// VarBounds projects the state schema's min/max into the form the
// delta worker clamps with.
func (a *Assets) VarBounds() map[string]state.VarBounds {
	out := make(map[string]state.VarBounds, len(a.StateSchema.Vars))
	for name, spec := range a.StateSchema.Vars {
		if spec.Min == nil && spec.Max == nil {
			continue
		}
		out[name] = state.VarBounds{Min: spec.Min, Max: spec.Max}
	}
	return out
}

// InitialWorld builds a fresh world state from the schema defaults.
func (a *Assets) InitialWorld() *state.WorldState {
	ws := state.NewWorldState()
	ws.Scene = a.OpeningScene
	for name, spec := range a.StateSchema.Vars {
		ws.Vars[name] = spec.Default
	}
	for name, spec := range a.StateSchema.Flags {
		ws.Flags[name] = spec.Default
	}
	for i := range a.NPCs {
		def := &a.NPCs[i]
		stats := make(map[string]int, len(def.Stats))
		for k, v := range def.Stats {
			stats[k] = v
		}
		status := def.Status
		if status == "" {
			status = state.StatusAlive
		}
		ws.NPCs[def.ID] = &state.NPCState{
			ID:     def.ID,
			Name:   def.Name,
			Status: status,
			Stats:  stats,
			Memory: &state.MemoryContainer{},
		}
	}
	ws.Inventory = append(ws.Inventory, a.OpeningInventory...)
	for _, l := range a.Locks {
		ws.Locks[l.ID] = false
	}
	return ws
}
