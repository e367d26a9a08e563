package state

// MemoryType classifies entries in an NPC's memory stream.
type MemoryType string

const (
	MemoryObservation    MemoryType = "observation"
	MemoryReflection     MemoryType = "reflection"
	MemoryPlan           MemoryType = "plan"
	MemoryDialogue       MemoryType = "dialogue"
	MemoryUnlockedSecret MemoryType = "unlocked-secret"
)

// MemoryEntry is one remembered event, insight, plan or conversation.
// Entries are immutable after creation except for LastAccessTurn, which
// retrieval refreshes as a deliberate recency policy.
type MemoryEntry struct {
	ID             string            `json:"id"`
	NPCID          string            `json:"npc_id"`
	Description    string            `json:"description"`
	CreationTurn   int               `json:"creation_turn"`
	LastAccessTurn int               `json:"last_access_turn"`
	Importance     float64           `json:"importance"`
	Type           MemoryType        `json:"type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MemoryContainer holds an NPC's memory stream and cognitive
// bookkeeping. It is owned by the NPCState and mutated only through
// the memory store; nothing else in the engine reaches into it.
type MemoryContainer struct {
	Stream                []MemoryEntry `json:"memory_stream"`
	AccumulatedImportance float64       `json:"accumulated_importance"`
	LastReflectedPhase    string        `json:"last_reflected_phase,omitempty"`
	LongTermPlan          string        `json:"long_term_plan,omitempty"`
	CurrentPlan           string        `json:"current_plan,omitempty"`
	CurrentPlanTurn       int           `json:"current_plan_turn,omitempty"`
}

// Clone deep-copies the container.
func (mc *MemoryContainer) Clone() *MemoryContainer {
	if mc == nil {
		return nil
	}
	out := &MemoryContainer{
		Stream:                make([]MemoryEntry, len(mc.Stream)),
		AccumulatedImportance: mc.AccumulatedImportance,
		LastReflectedPhase:    mc.LastReflectedPhase,
		LongTermPlan:          mc.LongTermPlan,
		CurrentPlan:           mc.CurrentPlan,
		CurrentPlanTurn:       mc.CurrentPlanTurn,
	}
	for i, e := range mc.Stream {
		if e.Metadata != nil {
			md := make(map[string]string, len(e.Metadata))
			for k, v := range e.Metadata {
				md[k] = v
			}
			e.Metadata = md
		}
		out.Stream[i] = e
	}
	return out
}

// Field exposes the container's string-valued bookkeeping by name for
// condition expressions that compare an NPC field against a string and
// fall back past the stat map.
func (mc *MemoryContainer) Field(name string) (string, bool) {
	if mc == nil {
		return "", false
	}
	switch name {
	case "long_term_plan":
		return mc.LongTermPlan, true
	case "current_plan":
		return mc.CurrentPlan, true
	case "last_reflected_phase":
		return mc.LastReflectedPhase, true
	default:
		return "", false
	}
}
