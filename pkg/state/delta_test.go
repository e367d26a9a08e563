package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeAdditiveFields(t *testing.T) {
	a := NewDelta()
	a.AddNPCStat("brother", "trust", 5)
	a.AddVar("humanity", -10)
	a.TurnIncrement = 1

	b := NewDelta()
	b.AddNPCStat("brother", "trust", 3)
	b.AddNPCStat("brother", "fear", -2)
	b.AddVar("humanity", 4)
	b.TurnIncrement = 1

	c := NewDelta()
	c.AddVar("humanity", 1)

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	assert.Equal(t, 8, left.NPCStats["brother"]["trust"])
	assert.Equal(t, -2, left.NPCStats["brother"]["fear"])
	assert.Equal(t, Number(-5), left.Vars["humanity"])
	assert.Equal(t, 2, left.TurnIncrement)

	assert.Equal(t, left.NPCStats, right.NPCStats)
	assert.Equal(t, left.Vars, right.Vars)
	assert.Equal(t, left.TurnIncrement, right.TurnIncrement)
}

func TestMergeOverwriteFields(t *testing.T) {
	a := NewDelta()
	a.SetFlag("door_open", Bool(true))
	a.SetNPCStatus("stepmother", StatusAlive)
	a.NextScene = "hallway"

	b := NewDelta()
	b.SetFlag("door_open", Bool(false))
	b.SetNPCStatus("stepmother", StatusSleeping)

	merged := Merge(a, b)
	assert.Equal(t, Bool(false), merged.Flags["door_open"])
	assert.Equal(t, StatusSleeping, merged.NPCStatus["stepmother"])
	assert.Equal(t, "hallway", merged.NextScene, "empty NextScene must not clobber an earlier writer")

	reversed := Merge(b, a)
	assert.Equal(t, Bool(true), reversed.Flags["door_open"])
	assert.Equal(t, StatusAlive, reversed.NPCStatus["stepmother"])
}

func TestMergeNonNumericVarsOverwrite(t *testing.T) {
	a := NewDelta()
	a.SetVar("location", String("kitchen"))
	b := NewDelta()
	b.SetVar("location", String("cellar"))

	merged := Merge(a, b)
	assert.Equal(t, String("cellar"), merged.Vars["location"])
}

func newTestWorld() *WorldState {
	ws := NewWorldState()
	ws.NPCs["brother"] = &NPCState{
		ID:     "brother",
		Status: StatusAlive,
		Stats:  map[string]int{"trust": 50, "fear": 10},
		Memory: &MemoryContainer{},
	}
	ws.Vars["humanity"] = Number(5)
	ws.Inventory = []string{"candle"}
	return ws
}

func TestApplyStatClamping(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		want   int
	}{
		{"within range", 20, 70},
		{"clamped high", 80, 100},
		{"clamped low", -200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := newTestWorld()
			d := NewDelta()
			d.AddNPCStat("brother", "trust", tt.amount)
			NewDeltaWorker(ws, nil, nil).Apply(d)
			assert.Equal(t, tt.want, ws.NPCs["brother"].Stats["trust"])
		})
	}
}

func TestApplyNumericVarsSum(t *testing.T) {
	ws := newTestWorld()
	d := NewDelta()
	d.AddVar("humanity", -10)
	NewDeltaWorker(ws, nil, nil).Apply(d)

	got, ok := ws.Vars["humanity"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(-5), got)
}

func TestApplyVarBounds(t *testing.T) {
	min, max := 0.0, 10.0
	bounds := map[string]VarBounds{"sanity": {Min: &min, Max: &max}}

	ws := newTestWorld()
	ws.Vars["sanity"] = Number(8)

	d := NewDelta()
	d.AddVar("sanity", 7)
	NewDeltaWorker(ws, bounds, nil).Apply(d)
	got, _ := ws.Vars["sanity"].AsNumber()
	assert.Equal(t, 10.0, got)

	d2 := NewDelta()
	d2.AddVar("sanity", -25)
	NewDeltaWorker(ws, bounds, nil).Apply(d2)
	got, _ = ws.Vars["sanity"].AsNumber()
	assert.Equal(t, 0.0, got)
}

func TestApplyInventoryRemoveWins(t *testing.T) {
	ws := newTestWorld()
	d := &Delta{
		InventoryAdd:    []string{"key", "key", "mirror"},
		InventoryRemove: []string{"key", "candle"},
	}
	NewDeltaWorker(ws, nil, nil).Apply(d)
	assert.Equal(t, []string{"mirror"}, ws.Inventory)
}

func TestApplyUnknownNPCSkipped(t *testing.T) {
	ws := newTestWorld()
	d := NewDelta()
	d.AddNPCStat("nobody", "trust", 5)
	d.AddNPCStat("brother", "trust", 5)
	NewDeltaWorker(ws, nil, nil).Apply(d)
	assert.Equal(t, 55, ws.NPCs["brother"].Stats["trust"])
}

func TestApplyTurnAndScene(t *testing.T) {
	ws := newTestWorld()
	d := &Delta{TurnIncrement: 1, NextScene: "attic"}
	NewDeltaWorker(ws, nil, nil).Apply(d)
	assert.Equal(t, 1, ws.Turn)
	assert.Equal(t, "attic", ws.Scene)
}
