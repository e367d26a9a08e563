package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/nightloop/pkg/state"
)

func TestAppendEnforcesCap(t *testing.T) {
	s := NewStore(nil)
	mc := &state.MemoryContainer{}

	for i := 0; i < MaxEntries+20; i++ {
		e := NewEntry("brother", fmt.Sprintf("event %d", i), float64(i%10)+1, i, state.MemoryObservation)
		s.Append(mc, e)
		assert.LessOrEqual(t, len(mc.Stream), MaxEntries)
	}
	assert.Len(t, mc.Stream, MaxEntries)

	// Stream stays in creation order after eviction.
	for i := 1; i < len(mc.Stream); i++ {
		assert.GreaterOrEqual(t, mc.Stream[i].CreationTurn, mc.Stream[i-1].CreationTurn)
	}
}

func TestEvictionDropsLowestRanked(t *testing.T) {
	s := NewStore(nil)
	mc := &state.MemoryContainer{}

	// Fill the cap with high-importance entries, then add a batch of
	// low-importance ones; the low batch should be what gets evicted.
	for i := 0; i < MaxEntries; i++ {
		s.Append(mc, NewEntry("brother", "important thing", 9, i, state.MemoryObservation))
	}
	s.Append(mc, NewEntry("brother", "trivia", 1, MaxEntries, state.MemoryObservation))

	assert.Len(t, mc.Stream, MaxEntries)
	for _, e := range mc.Stream {
		assert.NotEqual(t, "trivia", e.Description)
	}
}

func TestAccumulatedImportance(t *testing.T) {
	s := NewStore(nil)
	mc := &state.MemoryContainer{}
	s.Append(mc, NewEntry("brother", "a", 3, 0, state.MemoryObservation))
	s.Append(mc, NewEntry("brother", "b", 4.5, 0, state.MemoryObservation))
	assert.Equal(t, 7.5, mc.AccumulatedImportance)

	s.MarkReflected(mc, "guarded")
	assert.Equal(t, 0.0, mc.AccumulatedImportance)
	assert.Equal(t, "guarded", mc.LastReflectedPhase)
}

func TestRetrieveProperties(t *testing.T) {
	s := NewStore(nil)
	r := NewRetriever(s, nil)
	mc := &state.MemoryContainer{}

	assert.Empty(t, r.Retrieve(mc, "anything", 5, 3), "empty stream returns empty")

	for i := 0; i < 12; i++ {
		s.Append(mc, NewEntry("brother", fmt.Sprintf("saw the key on turn %d", i), float64(i%10), i, state.MemoryObservation))
	}

	// Snapshot scores before retrieval mutates last-access turns.
	scores := make(map[string]float64)
	for _, e := range mc.Stream {
		recency := 1.0
		for i := 0; i < 12-e.LastAccessTurn; i++ {
			recency *= RecencyDecay
		}
		scores[e.ID] = recency + e.Importance/10 + KeywordRelevance{}.Score(e.Description, "the key")
	}

	got := r.Retrieve(mc, "the key", 12, 5)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, scores[got[i].ID], scores[got[i-1].ID], "scores must be non-increasing")
	}
}

func TestRetrieveRefreshesAccess(t *testing.T) {
	s := NewStore(nil)
	r := NewRetriever(s, nil)
	mc := &state.MemoryContainer{}
	s.Append(mc, NewEntry("brother", "found the spade", 8, 1, state.MemoryObservation))

	got := r.Retrieve(mc, "spade", 9, 3)
	require.Len(t, got, 1)
	assert.Equal(t, 9, mc.Stream[0].LastAccessTurn)
}

func TestRetrievePinsPlanAndReflection(t *testing.T) {
	s := NewStore(nil)
	r := NewRetriever(s, nil)
	mc := &state.MemoryContainer{}
	s.SetLongTermPlan(mc, "protect edric at any cost")
	s.Append(mc, NewEntry("brother", "breakfast was quiet", 2, 1, state.MemoryObservation))
	s.Append(mc, NewEntry("brother", "she is not our mother", 9, 2, state.MemoryReflection))
	s.Append(mc, NewEntry("brother", "heard rain", 1, 3, state.MemoryObservation))

	got := r.Retrieve(mc, "weather", 4, 4)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, "protect edric at any cost", got[0].Description)
	assert.Equal(t, state.MemoryReflection, got[1].Type)
}

func TestKeywordRelevance(t *testing.T) {
	sc := KeywordRelevance{}
	assert.Equal(t, 1.0, sc.Score("the key is under the mat", "key mat"))
	assert.Equal(t, 0.0, sc.Score("nothing in common", "key"))
	assert.Equal(t, 0.5, sc.Score("anything", ""), "empty query scores neutral")
}
