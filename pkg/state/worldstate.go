package state

import (
	"sort"

	"github.com/google/uuid"
)

// NPCStatus is the coarse life/presence state of an NPC.
type NPCStatus string

const (
	StatusAlive    NPCStatus = "alive"
	StatusDeceased NPCStatus = "deceased"
	StatusMissing  NPCStatus = "missing"
	StatusSleeping NPCStatus = "sleeping"
	StatusUnknown  NPCStatus = "unknown"
)

// NPCState is one character's live state. The stat key set is
// scenario-defined and open; values are clamped to [0,100] on apply.
type NPCState struct {
	ID     string           `json:"id"`
	Name   string           `json:"name,omitempty"`
	Status NPCStatus        `json:"status"`
	Stats  map[string]int   `json:"stats"`
	Memory *MemoryContainer `json:"memory"`
}

func (n *NPCState) Clone() *NPCState {
	if n == nil {
		return nil
	}
	out := &NPCState{
		ID:     n.ID,
		Name:   n.Name,
		Status: n.Status,
		Stats:  make(map[string]int, len(n.Stats)),
		Memory: n.Memory.Clone(),
	}
	for k, v := range n.Stats {
		out.Stats[k] = v
	}
	return out
}

// WorldState is the single mutable snapshot for one game session.
// It changes only by applying a Delta; the one documented exception is
// memory appends, which go through the memory store.
type WorldState struct {
	ID        uuid.UUID            `json:"id"`
	Turn      int                  `json:"turn"`
	Scene     string               `json:"scene,omitempty"`
	NPCs      map[string]*NPCState `json:"npcs"`
	Flags     map[string]Value     `json:"flags"`
	Vars      map[string]Value     `json:"vars"`
	Inventory []string             `json:"inventory"`
	Locks     map[string]bool      `json:"locks"`
	IsEnded   bool                 `json:"is_ended,omitempty"`
	EndingID  string               `json:"ending_id,omitempty"`
}

func NewWorldState() *WorldState {
	return &WorldState{
		ID:        uuid.New(),
		NPCs:      make(map[string]*NPCState),
		Flags:     make(map[string]Value),
		Vars:      make(map[string]Value),
		Inventory: []string{},
		Locks:     make(map[string]bool),
	}
}

// Clone deep-copies the world state. The item resolver simulates
// candidate deltas against a clone so the caller's state stays
// untouched.
func (ws *WorldState) Clone() *WorldState {
	out := &WorldState{
		ID:        ws.ID,
		Turn:      ws.Turn,
		Scene:     ws.Scene,
		NPCs:      make(map[string]*NPCState, len(ws.NPCs)),
		Flags:     make(map[string]Value, len(ws.Flags)),
		Vars:      make(map[string]Value, len(ws.Vars)),
		Inventory: append([]string{}, ws.Inventory...),
		Locks:     make(map[string]bool, len(ws.Locks)),
		IsEnded:   ws.IsEnded,
		EndingID:  ws.EndingID,
	}
	for id, npc := range ws.NPCs {
		out.NPCs[id] = npc.Clone()
	}
	for k, v := range ws.Flags {
		out.Flags[k] = v
	}
	for k, v := range ws.Vars {
		out.Vars[k] = v
	}
	for k, v := range ws.Locks {
		out.Locks[k] = v
	}
	return out
}

func (ws *WorldState) HasItem(itemID string) bool {
	for _, id := range ws.Inventory {
		if id == itemID {
			return true
		}
	}
	return false
}

// NPCIDs returns the NPC ids sorted, for deterministic iteration.
func (ws *WorldState) NPCIDs() []string {
	ids := make([]string, 0, len(ws.NPCs))
	for id := range ws.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NPCStat reads a stat, defaulting to 0 for unknown keys like the
// condition DSL expects.
func (ws *WorldState) NPCStat(npcID, stat string) (int, bool) {
	npc, ok := ws.NPCs[npcID]
	if !ok {
		return 0, false
	}
	return npc.Stats[stat], true
}
