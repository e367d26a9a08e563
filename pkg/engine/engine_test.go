package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/nightloop/pkg/agents"
	"github.com/jwebster45206/nightloop/pkg/scenario"
	"github.com/jwebster45206/nightloop/pkg/state"
)

type silentGen struct{}

func (silentGen) Generate(context.Context, string, agents.GenerateOptions) (string, error) {
	return "", nil
}
func (silentGen) Available(context.Context) bool { return false }

func sessionAssets() *scenario.Assets {
	min := -20.0
	return &scenario.Assets{
		ID:        "hollow_house",
		Title:     "The Hollow House",
		TurnLimit: 10,
		StateSchema: scenario.StateSchema{
			Vars: map[string]scenario.VarSpec{
				"humanity": {Default: state.Number(5), Min: &min},
			},
			Flags: map[string]scenario.FlagSpec{
				"shed_open": {Default: state.Bool(false)},
			},
		},
		NPCs: []scenario.NPC{
			{ID: "brother", Name: "edric", Stats: map[string]int{"trust": 50},
				Persona: scenario.Persona{Summary: "a wary younger brother"},
				Phases:  []scenario.Phase{{ID: "guarded"}}},
			{ID: "stepmother", Name: "maren", Stats: map[string]int{"suspicion": 30},
				Persona: scenario.Persona{Summary: "too calm"},
				Phases:  []scenario.Phase{{ID: "watchful"}}},
		},
		Items: []scenario.Item{
			{
				ID: "honey_cake", Name: "honey cake", Type: scenario.ItemTypeConsumable,
				Use: scenario.Use{Actions: []scenario.Action{{
					ID:             "share",
					AllowedWhen:    "true",
					Effects:        []scenario.EffectSpec{{Type: "stat_add", Target: "npc.target.trust", Value: state.Number(5)}},
					SuccessMessage: "He takes the cake gladly.",
				}}},
			},
			{
				ID: "sleeping_draught", Name: "sleeping draught", Type: scenario.ItemTypeConsumable,
				Use: scenario.Use{Actions: []scenario.Action{{
					ID:          "dose",
					AllowedWhen: "true",
					Effects: []scenario.EffectSpec{{
						Type: "set_state", Target: "npc.stepmother.status",
						Value: state.String("sleeping"), Duration: 1,
					}},
					SuccessMessage: "She drinks it without looking.",
				}}},
			},
			{
				ID: "crow_feather", Name: "crow feather", Type: scenario.ItemTypeEvidence,
				Acquire: scenario.Acquire{Method: "auto", Condition: "npc.brother.trust >= 60"},
			},
		},
		Locks: []scenario.Lock{{
			ID: "cellar_secret", Title: "the cellar",
			Description:     "something is buried beneath the coal heap",
			UnlockCondition: "npc.brother.trust >= 60",
			Access:          scenario.LockAccess{AllowedNPCs: []string{"brother"}},
		}},
		Endings: []scenario.Ending{
			{ID: "hollowed", Name: "Hollowed Out", Condition: "vars.humanity <= 0",
				OnEnterEvents: []scenario.Event{{Type: "flag_set", Key: "epilogue_shown", Value: state.Bool(true)}}},
			{ID: "out_of_time", Name: "Out of Time", Condition: "system.turn >= turn_limit"},
		},
		MemoryRules: scenario.MemoryRules{RewriteRules: []scenario.RewriteRule{{
			ID:   "threaten",
			When: "intent == 'threaten'",
			Effects: []scenario.EffectSpec{
				{Type: "npc_stat_sub", Target: "npc.target.trust", Value: state.Number(10)},
				{Type: "var_sub", Target: "humanity", Value: state.Number(1)},
			},
		}}},
	}
}

func newTestSession() *Session {
	s := NewSession(sessionAssets(), silentGen{}, nil, 7, nil)
	s.World.Inventory = []string{"honey_cake", "sleeping_draught"}
	return s
}

func TestDayTurnPipeline(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()

	// Turn 1: threaten the brother. The rewrite rule fires.
	report, err := s.DayTurn(ctx, DayAction{
		Intent: "threaten", NPCID: "brother",
		Description: "the player threatened edric in the kitchen",
	})
	require.NoError(t, err)
	assert.Nil(t, report.Ending)
	assert.Equal(t, 40, s.World.NPCs["brother"].Stats["trust"])
	h, _ := s.World.Vars["humanity"].AsNumber()
	assert.Equal(t, 4.0, h)
	assert.Equal(t, 1, s.World.Turn)
	assert.Equal(t, []string{"the player threatened edric in the kitchen"}, s.ActionLog())

	// Turn 2: share the cake. Item delta and consumption apply.
	report, err = s.DayTurn(ctx, DayAction{
		Intent: "give_gift", NPCID: "brother", UseItemID: "honey_cake",
		Description: "the player shared a honey cake with edric",
	})
	require.NoError(t, err)
	require.NotNil(t, report.UseResult)
	assert.True(t, report.UseResult.Success)
	assert.Equal(t, 45, s.World.NPCs["brother"].Stats["trust"])
	assert.False(t, s.World.HasItem("honey_cake"))
	assert.Equal(t, 2, s.World.Turn)
}

func TestDayTurnGatesFire(t *testing.T) {
	s := newTestSession()
	s.World.NPCs["brother"].Stats["trust"] = 58

	report, err := s.DayTurn(context.Background(), DayAction{
		Intent: "give_gift", NPCID: "brother", UseItemID: "honey_cake",
	})
	require.NoError(t, err)

	// trust 58 + 5 = 63 crosses both the auto-acquire and lock gates.
	assert.Equal(t, []string{"crow_feather"}, report.NewlyAcquired)
	assert.True(t, s.World.HasItem("crow_feather"))

	require.Len(t, report.NewlyUnlocked, 1)
	assert.True(t, s.World.Locks["cellar_secret"])
	require.NotEmpty(t, s.World.NPCs["brother"].Memory.Stream)
	assert.Equal(t, state.MemoryUnlockedSecret, s.World.NPCs["brother"].Memory.Stream[0].Type)
}

func TestStatusEffectLifecycleAcrossTurns(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()

	_, err := s.DayTurn(ctx, DayAction{UseItemID: "sleeping_draught", Intent: "scheme"})
	require.NoError(t, err)
	assert.Equal(t, state.StatusSleeping, s.World.NPCs["stepmother"].Status)

	// The draught lasts one turn; the next turn's tick restores her.
	_, err = s.DayTurn(ctx, DayAction{Intent: "wait"})
	require.NoError(t, err)
	assert.Equal(t, state.StatusAlive, s.World.NPCs["stepmother"].Status)
}

func TestEndingEndsSession(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()
	s.World.Vars["humanity"] = state.Number(1)

	report, err := s.DayTurn(ctx, DayAction{Intent: "threaten", NPCID: "brother"})
	require.NoError(t, err)
	require.NotNil(t, report.Ending)
	assert.Equal(t, "hollowed", report.Ending.ID)
	assert.True(t, s.World.IsEnded)
	assert.Equal(t, state.Bool(true), s.World.Flags["epilogue_shown"], "on-enter events applied")

	_, err = s.DayTurn(ctx, DayAction{Intent: "wait"})
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, _, err = s.NightPhase(ctx)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestTurnLimitEnding(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()
	s.World.Turn = 9

	report, err := s.DayTurn(ctx, DayAction{Intent: "wait"})
	require.NoError(t, err)
	require.NotNil(t, report.Ending)
	assert.Equal(t, "out_of_time", report.Ending.ID)
}

func TestNightPhaseAppliesAndClearsLog(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()

	_, err := s.DayTurn(ctx, DayAction{Intent: "wait", Description: "a tense, silent supper"})
	require.NoError(t, err)

	result, report, err := s.NightPhase(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Nil(t, report.Ending)
	assert.Equal(t, 2, s.World.Turn, "night consumes a turn")
	assert.Empty(t, s.ActionLog(), "the day log is consumed")
	assert.NotEmpty(t, s.World.NPCs["brother"].Memory.Stream, "night seeds observations")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := newTestSession()
	ctx := context.Background()
	_, err := s.DayTurn(ctx, DayAction{UseItemID: "sleeping_draught", Intent: "scheme", Description: "dosed the tea"})
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.StatusEffects, 1)

	restored := NewSession(sessionAssets(), silentGen{}, nil, 7, nil)
	restored.Restore(snap)
	assert.Equal(t, s.World.Turn, restored.World.Turn)
	assert.Equal(t, state.StatusSleeping, restored.World.NPCs["stepmother"].Status)
	assert.Equal(t, []string{"dosed the tea"}, restored.ActionLog())

	// The restored ticker still expires the effect on schedule.
	_, err = restored.DayTurn(ctx, DayAction{Intent: "wait"})
	require.NoError(t, err)
	assert.Equal(t, state.StatusAlive, restored.World.NPCs["stepmother"].Status)
}
