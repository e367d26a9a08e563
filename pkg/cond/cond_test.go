package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/nightloop/pkg/state"
)

func testContext() *Context {
	ws := state.NewWorldState()
	ws.Turn = 3
	ws.NPCs["brother"] = &state.NPCState{
		ID:     "brother",
		Status: state.StatusAlive,
		Stats:  map[string]int{"trust": 60, "fear": 20},
		Memory: &state.MemoryContainer{CurrentPlan: "hide the key"},
	}
	ws.NPCs["stepmother"] = &state.NPCState{
		ID:     "stepmother",
		Status: state.StatusSleeping,
		Stats:  map[string]int{"suspicion": 40},
		Memory: &state.MemoryContainer{},
	}
	ws.Flags["door_open"] = state.Bool(true)
	ws.Flags["ritual_done"] = state.Bool(false)
	ws.Vars["humanity"] = state.Number(5)
	ws.Vars["brave"] = state.Bool(true)
	ws.Inventory = []string{"candle", "mirror"}
	return &Context{World: ws, TurnLimit: 10}
}

func TestEvaluateForms(t *testing.T) {
	ctx := testContext()
	tests := []struct {
		expr string
		want bool
	}{
		{"npc.brother.trust >= 50", true},
		{"npc.brother.trust < 50", false},
		{"npc.brother.courage > 0", false}, // missing stat reads as 0
		{"npc.stepmother.status == 'sleeping'", true},
		{"npc.stepmother.status != 'sleeping'", false},
		{"npc.brother.current_plan == 'hide the key'", true},
		{"npc.ghost.trust > 0", false}, // unknown NPC
		{"vars.humanity <= 0", false},
		{"vars.humanity > 0", true},
		{"vars.brave == true", true},
		{"vars.brave == false", false},
		{"flags.door_open == true", true},
		{"flags.door_open == false", false},
		{"flags.ritual_done == false", true},
		{"flags.never_set == null", true},
		{"flags.door_open == null", false},
		{"flags.humanity == null", false}, // null falls back to vars
		{"has_item(candle)", true},
		{"has_item('mirror')", true},
		{"has_item(key)", false},
		{"system.turn >= 3", true},
		{"system.turn == turn_limit", false},
		{"system.turn < turn_limit", true},
		{"true", true},
		{"", true},
		{"npc.brother.trust >= 50 and has_item(candle)", true},
		{"npc.brother.trust >= 50 and has_item(key)", false},
		{"has_item(key) or flags.door_open == true", true},
		{"has_item(key) or vars.humanity <= 0", false},
		// "and" binds tighter than "or".
		{"has_item(key) and vars.humanity > 0 or flags.door_open == true", true},
		{"flags.door_open == true and has_item(key) or system.turn > 99", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, ctx, nil))
		})
	}
}

func TestEvaluateFailClosed(t *testing.T) {
	ctx := testContext()
	for _, expr := range []string{
		"npc.brother.trust >>> 5",
		"gibberish(",
		"vars.humanity <= zero",
		"npc.brother", // incomplete
	} {
		assert.False(t, Evaluate(expr, ctx, nil), expr)
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestHumanityScenario(t *testing.T) {
	ctx := testContext()
	assert.False(t, Evaluate("vars.humanity <= 0", ctx, nil))

	d := state.NewDelta()
	d.AddVar("humanity", -10)
	state.NewDeltaWorker(ctx.World, nil, nil).Apply(d)

	got, _ := ctx.World.Vars["humanity"].AsNumber()
	require.Equal(t, -5.0, got)
	assert.True(t, Evaluate("vars.humanity <= 0", ctx, nil))
}

func TestBareStatNeedsSelfStats(t *testing.T) {
	// A bare stat name must resolve against an NPC's own stats, never
	// against the zero value in a world-state gate.
	worldCtx := testContext()
	assert.False(t, Evaluate("humanity <= 0", worldCtx, nil),
		"vars.humanity is 5; the bare form must not read a zero self stat")
	assert.False(t, Evaluate("humanity <= 0 or flags.never_set == null", worldCtx, nil),
		"one bare clause poisons the whole gate")

	phaseCtx := &Context{SelfStats: map[string]int{"humanity": 0}}
	assert.True(t, Evaluate("humanity <= 0", phaseCtx, nil))

	tree, err := Parse("has_item(candle) and humanity <= 0")
	require.NoError(t, err)
	assert.True(t, ContainsSelfStat(tree))
	tree, err = Parse("vars.humanity <= 0")
	require.NoError(t, err)
	assert.False(t, ContainsSelfStat(tree))
}

func TestPhaseGrammar(t *testing.T) {
	ctx := &Context{SelfStats: map[string]int{"affection": 80, "dread": 10}}
	tests := []struct {
		expr string
		want bool
	}{
		{"affection < 50", false},
		{"affection >= 50", true},
		{"affection < 50 or dread > 5", true},
		{"affection < 50 and dread > 5", false},
		{"resolve > 0", false}, // missing self stat reads as 0
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expr, ctx, nil))
		})
	}
}

func TestParseProducesTypedTree(t *testing.T) {
	tree, err := Parse("npc.brother.trust >= 50 and has_item(candle) or system.turn == turn_limit")
	require.NoError(t, err)

	or, ok := tree.(*Or)
	require.True(t, ok)
	require.Len(t, or.Terms, 2)

	and, ok := or.Terms[0].(*And)
	require.True(t, ok)
	require.Len(t, and.Terms, 2)
	assert.IsType(t, &StatCompare{}, and.Terms[0])
	assert.IsType(t, &HasItem{}, and.Terms[1])
	assert.IsType(t, &TurnCompare{}, or.Terms[1])
}
