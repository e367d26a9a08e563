package agents

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/nightloop/pkg/memory"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

// stubGen returns scripted replies in order, then repeats the last.
type stubGen struct {
	replies []string
	calls   int
	down    bool
}

func (s *stubGen) Generate(_ context.Context, _ string, _ GenerateOptions) (string, error) {
	if s.down {
		return "", nil
	}
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	if i < 0 {
		return "", nil
	}
	return s.replies[i], nil
}

func (s *stubGen) Available(context.Context) bool { return !s.down }

func brotherDef() *scenario.NPC {
	return &scenario.NPC{
		ID:   "brother",
		Name: "edric",
		Goal: "find out what happened to mother",
		Persona: scenario.Persona{
			Summary:  "a wary younger brother",
			Triggers: scenario.Triggers{Plus: []string{"cake"}, Minus: []string{"cellar"}},
		},
		Phases: []scenario.Phase{
			{ID: "guarded", BehaviorGuide: "keeps to himself", Transition: scenario.PhaseTransition{Condition: "trust >= 70"}},
			{ID: "open", BehaviorGuide: "speaks freely"},
		},
	}
}

func brotherState(trust int) *state.NPCState {
	return &state.NPCState{
		ID:     "brother",
		Status: state.StatusAlive,
		Stats:  map[string]int{"trust": trust},
		Memory: &state.MemoryContainer{},
	}
}

func TestResolvePhase(t *testing.T) {
	def := brotherDef()

	got := ResolvePhase(def.Phases, map[string]int{"trust": 50}, "", nil)
	assert.Equal(t, "guarded", got.ID)

	got = ResolvePhase(def.Phases, map[string]int{"trust": 80}, "", nil)
	assert.Equal(t, "open", got.ID)

	// The stat example from the phase grammar: affection 80 does not
	// satisfy "affection < 50", so no transition happens.
	phases := []scenario.Phase{
		{ID: "warm", Transition: scenario.PhaseTransition{Condition: "affection < 50"}},
		{ID: "cold"},
	}
	got = ResolvePhase(phases, map[string]int{"affection": 80}, "", nil)
	assert.Equal(t, "warm", got.ID)

	assert.Equal(t, scenario.Phase{}, ResolvePhase(nil, nil, "", nil))
}

func TestReflectionFiresOncePerPhase(t *testing.T) {
	store := memory.NewStore(nil)
	gen := &stubGen{down: true}
	r := NewReflector(gen, store, nil)
	def := brotherDef()
	npc := brotherState(50)
	ctx := context.Background()

	insights := r.MaybeReflect(ctx, npc, def, 3)
	require.NotEmpty(t, insights, "entering the first phase triggers reflection")
	assert.Equal(t, "guarded", npc.Memory.LastReflectedPhase)
	streamLen := len(npc.Memory.Stream)

	for i := 0; i < 5; i++ {
		assert.Nil(t, r.MaybeReflect(ctx, npc, def, 3+i), "same phase never re-fires")
	}
	assert.Len(t, npc.Memory.Stream, streamLen)

	npc.Stats["trust"] = 90
	insights = r.MaybeReflect(ctx, npc, def, 9)
	require.NotEmpty(t, insights, "phase change to open re-triggers once")
	assert.Equal(t, "open", npc.Memory.LastReflectedPhase)
	assert.Nil(t, r.MaybeReflect(ctx, npc, def, 10))
}

func TestReflectionFallbackUsesPhaseGuide(t *testing.T) {
	store := memory.NewStore(nil)
	r := NewReflector(&stubGen{down: true}, store, nil)
	npc := brotherState(90)

	insights := r.MaybeReflect(context.Background(), npc, brotherDef(), 3)
	require.Len(t, insights, 1)
	assert.Contains(t, insights[0], "edric")
	assert.Contains(t, insights[0], "speaks freely", "fallback insight carries the new phase's behavior guide")
}

func TestReflectionInsightsFromGenerator(t *testing.T) {
	store := memory.NewStore(nil)
	gen := &stubGen{replies: []string{
		"1. Why does she lock the cellar?\n2. Where did the letters go?",
		"She locks the cellar because something is buried there.",
		"The letters were burned the night mother vanished.",
		"8",
		"9",
	}}
	r := NewReflector(gen, store, nil)
	npc := brotherState(50)
	store.Append(npc.Memory, memory.NewEntry("brother", "saw her hide the cellar key", 7, 2, state.MemoryObservation))

	insights := r.MaybeReflect(context.Background(), npc, brotherDef(), 3)
	require.Len(t, insights, 2)

	var reflections []state.MemoryEntry
	for _, e := range npc.Memory.Stream {
		if e.Type == state.MemoryReflection {
			reflections = append(reflections, e)
		}
	}
	require.Len(t, reflections, 2)
	for _, e := range reflections {
		assert.GreaterOrEqual(t, e.Importance, ReflectionInsightFloor)
	}
	assert.Equal(t, 0.0, npc.Memory.AccumulatedImportance, "reflection resets the trigger counter")
}

func TestPlannerLongTermPlanIsOneTime(t *testing.T) {
	store := memory.NewStore(nil)
	gen := &stubGen{replies: []string{"I will watch her until I know the truth."}}
	p := NewPlanner(gen, store, nil)
	npc := brotherState(50)
	ctx := context.Background()

	first := p.EnsureLongTermPlan(ctx, npc, brotherDef())
	assert.Equal(t, "I will watch her until I know the truth.", first)

	gen.replies = []string{"something else entirely"}
	gen.calls = 0
	assert.Equal(t, first, p.EnsureLongTermPlan(ctx, npc, brotherDef()))
}

func TestPlanNightStoresPlanMemory(t *testing.T) {
	store := memory.NewStore(nil)
	p := NewPlanner(&stubGen{down: true}, store, nil)
	npc := brotherState(50)
	def := brotherDef()

	plan := p.PlanNight(context.Background(), npc, def, def.Phases[0], []string{"the player shared a honey cake"}, 4)
	require.NotEmpty(t, plan)
	assert.Equal(t, plan, npc.Memory.CurrentPlan)
	assert.Equal(t, 4, npc.Memory.CurrentPlanTurn)

	require.Len(t, npc.Memory.Stream, 1)
	assert.Equal(t, state.MemoryPlan, npc.Memory.Stream[0].Type)
}

func TestFormatAgendaSeverityTags(t *testing.T) {
	triggers := scenario.Triggers{Plus: []string{"cake"}, Minus: []string{"cellar"}}
	got := FormatAgenda([]string{
		"the player shared a honey cake",
		"the player tried the cellar door",
		"rain all afternoon",
	}, triggers)

	assert.Contains(t, got, "- [+] the player shared a honey cake")
	assert.Contains(t, got, "- [!] the player tried the cellar door")
	assert.Contains(t, got, "- rain all afternoon")

	assert.Equal(t, "- an uneventful day", FormatAgenda(nil, triggers))
}

func TestDialogueFallbackAndMemory(t *testing.T) {
	store := memory.NewStore(nil)
	retriever := memory.NewRetriever(store, nil)
	rng := rand.New(rand.NewSource(7))
	d := NewDialogueEngine(&stubGen{down: true}, store, retriever, nil, rng, nil)

	a := Participant{State: brotherState(50), Def: brotherDef()}
	stepDef := &scenario.NPC{ID: "stepmother", Name: "maren", Persona: scenario.Persona{Summary: "too calm"}}
	b := Participant{
		State: &state.NPCState{ID: "stepmother", Status: state.StatusAlive, Stats: map[string]int{}, Memory: &state.MemoryContainer{}},
		Def:   stepDef,
	}

	conv := d.PairExchange(context.Background(), a, b, 5)
	require.Len(t, conv, PairUtterances)
	assert.Equal(t, "brother", conv[0].Speaker)
	assert.Equal(t, "stepmother", conv[1].Speaker)
	for _, u := range conv {
		assert.NotEmpty(t, u.Text, "generation failure must fall back, never go silent")
	}

	d.StoreConversation(context.Background(), conv, []Participant{a, b}, 5)
	require.Len(t, a.State.Memory.Stream, 1)
	assert.Equal(t, state.MemoryDialogue, a.State.Memory.Stream[0].Type)
	assert.Contains(t, a.State.Memory.Stream[0].Description, "talked with maren")
}

func TestGroupRoundNeverRepeatsSpeaker(t *testing.T) {
	store := memory.NewStore(nil)
	retriever := memory.NewRetriever(store, nil)
	rng := rand.New(rand.NewSource(11))
	d := NewDialogueEngine(&stubGen{replies: []string{"We should not speak of it."}}, store, retriever, nil, rng, nil)

	var participants []Participant
	for _, id := range []string{"brother", "stepmother", "lodger"} {
		participants = append(participants, Participant{
			State: &state.NPCState{ID: id, Status: state.StatusAlive, Stats: map[string]int{}, Memory: &state.MemoryContainer{}},
			Def:   &scenario.NPC{ID: id, Name: id},
		})
	}

	conv := d.GroupRound(context.Background(), participants, 5)
	require.Len(t, conv, GroupUtterances)
	for i := 1; i < len(conv); i++ {
		assert.NotEqual(t, conv[i-1].Speaker, conv[i].Speaker)
	}
}

func TestImpactAnalysis(t *testing.T) {
	a := Participant{State: brotherState(50), Def: brotherDef()}
	participants := []Participant{a}
	conv := []Utterance{{Speaker: "brother", Name: "edric", Text: "I know about the cellar."}}

	gen := &stubGen{replies: []string{"Here is my estimate:\n```json\n{\"brother\": {\"trust\": 5, \"fear\": -1}}\n```"}}
	d := NewImpactAnalyzer(gen, nil).Analyze(context.Background(), conv, participants)
	assert.Equal(t, ImpactClamp, d.NPCStats["brother"]["trust"], "deltas clamp to the allowed range")
	assert.Equal(t, -1, d.NPCStats["brother"]["fear"])

	// Bare JSON object, unknown NPC filtered.
	gen = &stubGen{replies: []string{`I think {"brother": {"trust": 1}, "ghost": {"fear": 2}} about covers it`}}
	d = NewImpactAnalyzer(gen, nil).Analyze(context.Background(), conv, participants)
	assert.Equal(t, 1, d.NPCStats["brother"]["trust"])
	assert.NotContains(t, d.NPCStats, "ghost")

	// Garbage reply yields an empty delta, not an error.
	gen = &stubGen{replies: []string{"no structured answer"}}
	assert.True(t, NewImpactAnalyzer(gen, nil).Analyze(context.Background(), conv, participants).IsEmpty())

	_, err := ParseImpact("not json at all")
	assert.Error(t, err)
}
