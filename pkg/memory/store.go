// Package memory implements the append-only NPC memory stream and the
// recency/importance/relevance retrieval scorer. All mutation of a
// MemoryContainer goes through Store; this is the one sanctioned
// exception to delta-only world mutation.
package memory

import (
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/jwebster45206/nightloop/pkg/state"
)

// MaxEntries caps a single NPC's memory stream.
const MaxEntries = 100

// Store owns all writes to memory containers.
type Store struct {
	logger *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// NewEntry builds a memory entry with a fresh id. The creation turn
// doubles as the initial last-access turn.
func NewEntry(npcID, description string, importance float64, turn int, typ state.MemoryType) state.MemoryEntry {
	return state.MemoryEntry{
		ID:             uuid.NewString(),
		NPCID:          npcID,
		Description:    description,
		CreationTurn:   turn,
		LastAccessTurn: turn,
		Importance:     importance,
		Type:           typ,
	}
}

// Append adds an entry to the container, bumps the accumulated
// importance counter, and evicts if the stream exceeds the cap.
func (s *Store) Append(mc *state.MemoryContainer, e state.MemoryEntry) {
	mc.Stream = append(mc.Stream, e)
	mc.AccumulatedImportance += e.Importance
	if len(mc.Stream) > MaxEntries {
		s.evict(mc)
	}
}

// evict keeps the top-MaxEntries entries ranked by (importance,
// creation turn) and restores creation order afterwards so the stream
// still reads chronologically.
func (s *Store) evict(mc *state.MemoryContainer) {
	ranked := make([]int, len(mc.Stream))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ea, eb := mc.Stream[ranked[a]], mc.Stream[ranked[b]]
		if ea.Importance != eb.Importance {
			return ea.Importance < eb.Importance
		}
		return ea.CreationTurn < eb.CreationTurn
	})

	drop := len(mc.Stream) - MaxEntries
	dropped := make(map[int]bool, drop)
	for _, idx := range ranked[:drop] {
		dropped[idx] = true
	}

	kept := make([]state.MemoryEntry, 0, MaxEntries)
	for i, e := range mc.Stream {
		if !dropped[i] {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].CreationTurn < kept[b].CreationTurn
	})
	mc.Stream = kept
	s.logger.Debug("evicted memories", "dropped", drop)
}

// Stream returns a copy of the container's entries.
func (s *Store) Stream(mc *state.MemoryContainer) []state.MemoryEntry {
	out := make([]state.MemoryEntry, len(mc.Stream))
	copy(out, mc.Stream)
	return out
}

// SetLongTermPlan records the one-time long-term plan.
func (s *Store) SetLongTermPlan(mc *state.MemoryContainer, plan string) {
	mc.LongTermPlan = plan
}

// SetCurrentPlan records the nightly short-term plan.
func (s *Store) SetCurrentPlan(mc *state.MemoryContainer, plan string, turn int) {
	mc.CurrentPlan = plan
	mc.CurrentPlanTurn = turn
}

// MarkReflected writes the phase guard and resets the accumulated
// importance trigger signal.
func (s *Store) MarkReflected(mc *state.MemoryContainer, phaseID string) {
	mc.LastReflectedPhase = phaseID
	mc.AccumulatedImportance = 0
}

// RefreshAccess updates last-access turns for the entries with the
// given ids. Retrieval calls this so that recall refreshes recency.
func (s *Store) RefreshAccess(mc *state.MemoryContainer, ids []string, turn int) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range mc.Stream {
		if idSet[mc.Stream[i].ID] {
			mc.Stream[i].LastAccessTurn = turn
		}
	}
}
